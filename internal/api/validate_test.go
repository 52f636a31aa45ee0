package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidDeviceId(t *testing.T) {
	cases := []struct {
		id    string
		valid bool
	}{
		{"1A2B3C4D5E6F0010", true},
		{"abcdef0123456789", true}, // 大小写不敏感
		{"ABCDEF0123456789", true},
		{"1A2B3C4D5E6F001", false},   // 15位
		{"1A2B3C4D5E6F00100", false}, // 17位
		{"1A2B3C4D5E6F001G", false},  // 非十六进制字符
		{"", false},
		{"1A2B3C4D5E6F 010", false},
	}

	for _, c := range cases {
		assert.Equal(t, c.valid, IsValidDeviceId(c.id), "id=%q", c.id)
	}
}

func TestIsValidUsername(t *testing.T) {
	cases := []struct {
		username string
		valid    bool
	}{
		{"user@example.com", true},
		{"a@b.c", true},
		{"user", false},
		{"user@domain", false},
		{"@example.com", false},
		{"", false},
	}

	for _, c := range cases {
		assert.Equal(t, c.valid, IsValidUsername(c.username), "username=%q", c.username)
	}
}

func TestIsValidFanSpeed(t *testing.T) {
	for _, v := range []string{"0", "1", "2", "3"} {
		assert.True(t, IsValidFanSpeed(v), "v=%q", v)
	}
	for _, v := range []string{"4", "-1", "a", "", "10", "03"} {
		assert.False(t, IsValidFanSpeed(v), "v=%q", v)
	}
}

func TestIsValidBrightness(t *testing.T) {
	for _, v := range []string{"0", "1", "2", "3", "4"} {
		assert.True(t, IsValidBrightness(v), "v=%q", v)
	}
	for _, v := range []string{"5", "-1", "a", ""} {
		assert.False(t, IsValidBrightness(v), "v=%q", v)
	}
}

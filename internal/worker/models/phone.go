package models

import "strings"

// NormalizePhone maps the phone spellings seen in uploads and submissions
// onto the canonical +255 form used as the identity key:
//
//	255XXXXXXXXX → +255XXXXXXXXX
//	07XXXXXXXXX  → +2557XXXXXXXX (digits after the leading 0)
//	7XXXXXXXXX   → +2557XXXXXXXX
//
// Anything else passes through unchanged. Unrecognized values are not
// rejected; batch matching simply never finds them.
func NormalizePhone(phone string) string {
	switch {
	case strings.HasPrefix(phone, "255"):
		return "+" + phone
	case strings.HasPrefix(phone, "07"):
		return "+255" + phone[1:]
	case strings.HasPrefix(phone, "7"):
		return "+255" + phone
	default:
		return phone
	}
}

// LocalPhone renders a canonical +255 number in the 0-prefixed local form the
// mobile operator expects on closed-user-group request sheets. It is the
// inverse of NormalizePhone for numbers it recognizes.
func LocalPhone(phone string) string {
	switch {
	case strings.HasPrefix(phone, "+2557"):
		return "07" + phone[5:]
	case strings.HasPrefix(phone, "7"):
		return "0" + phone
	default:
		return phone
	}
}

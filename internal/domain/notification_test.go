package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseChannelFromString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input   string
		want    Channel
		wantErr bool
	}{
		{input: "EMAIL", want: ChannelEmail},
		{input: "email", want: ChannelEmail},
		{input: "  Sms  ", want: ChannelSMS},
		{input: "push", want: ChannelPush},
		{input: "", wantErr: true},
		{input: "carrier-pigeon", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseChannelFromString(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseChannelFromString(%q) expected error", tc.input)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("ParseChannelFromString(%q) error = %v, want ErrValidation", tc.input, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseChannelFromString(%q) error = %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseChannelFromString(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestNotificationValidate(t *testing.T) {
	t.Parallel()

	valid := Notification{Channel: ChannelEmail, Email: "customer@example.com"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	badChannel := Notification{Channel: "FAX"}
	if err := badChannel.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}

	noEmail := Notification{Channel: ChannelEmail, Email: "   "}
	err := noEmail.Validate()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}

	smsNoEmail := Notification{Channel: ChannelSMS}
	if err := smsNoEmail.Validate(); err != nil {
		t.Fatalf("Validate() for sms without email error = %v", err)
	}
}

func TestNotificationRequestValidate(t *testing.T) {
	t.Parallel()

	req := NotificationRequest{CustomerID: 7, Channel: ChannelEmail, Email: "a@b.c"}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	noCustomer := NotificationRequest{Channel: ChannelEmail, Email: "a@b.c"}
	if err := noCustomer.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}

	noEmail := NotificationRequest{CustomerID: 7, Channel: ChannelEmail}
	if err := noEmail.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}
}

func TestNotificationCopyConstructors(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	original := Notification{
		ID:      "n-1",
		Message: "first",
		Channel: ChannelEmail,
		Email:   "customer@example.com",
		Sent:    false,
	}

	sent := original.WithSent(at)
	if !sent.Sent || !sent.SentAt.Equal(at) {
		t.Fatalf("WithSent() = sent=%v sentAt=%v", sent.Sent, sent.SentAt)
	}
	if original.Sent {
		t.Fatal("WithSent() mutated the original value")
	}

	later := at.Add(time.Hour)
	resend := sent.WithMessage("second", ChannelSMS, later)
	if resend.Message != "second" || resend.Channel != ChannelSMS {
		t.Fatalf("WithMessage() = message=%q channel=%s", resend.Message, resend.Channel)
	}
	if resend.Sent {
		t.Fatal("WithMessage() copy should start unsent")
	}
	if !resend.SentAt.Equal(later) {
		t.Fatalf("WithMessage() sentAt = %v, want %v", resend.SentAt, later)
	}
	if sent.Message != "first" {
		t.Fatal("WithMessage() mutated the receiver")
	}
}

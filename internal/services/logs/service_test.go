package logs

import (
	"context"
	"errors"
	"testing"

	"github.com/curator/console/internal/models"
	"github.com/curator/console/internal/refdata"
)

func TestCreateRequiresImages(t *testing.T) {
	s := NewService(nil, nil, refdata.Default(), nil)
	sub := &models.Submission{
		Target:   models.PairedID{ID: "123456789"},
		Mode:     "warn",
		Reason:   "spam",
		Operator: models.PairedID{ID: "3875039665"},
		Time:     "2025-06-01 10:00:00",
	}
	if _, err := s.Save(context.Background(), sub); !errors.Is(err, ErrNoImages) {
		t.Fatalf("create without images: %v", err)
	}
}

func TestEditAllowsMissingImages(t *testing.T) {
	// Legacy rows imported without evidence stay editable image-free.
	if err := checkImages(&models.Submission{ID: 7}); err != nil {
		t.Fatalf("image-less edit rejected: %v", err)
	}
	if err := checkImages(&models.Submission{}); !errors.Is(err, ErrNoImages) {
		t.Fatal("creation-time evidence requirement lost")
	}
	sub := &models.Submission{Images: models.SubmittedImages{
		Inline: map[int]string{1: "data:image/png;base64,aaaa"},
	}}
	if err := checkImages(sub); err != nil {
		t.Fatalf("create with an inline image rejected: %v", err)
	}
}

func TestOperatorShield(t *testing.T) {
	s := NewService(nil, nil, refdata.Default(), nil)

	tests := []struct {
		name    string
		mode    string
		target  string
		wantErr error
	}{
		{"mute on an active operator", "mute", "2659089747", ErrOperatorShielded},
		{"kick on an active operator", "kick", "2659089747", ErrOperatorShielded},
		{"warn on an active operator", "warn", "2659089747", nil},
		{"mute on a former operator", "mute", "2475530125", nil},
		{"mute on a regular target", "mute", "123456789", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &models.Submission{Mode: tt.mode, Target: models.PairedID{ID: tt.target}}
			if err := s.checkShield(sub); !errors.Is(err, tt.wantErr) {
				t.Errorf("checkShield = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

package repository

import (
	"errors"
	"testing"
)

func TestSearchClause(t *testing.T) {
	tests := []struct {
		name     string
		term     string
		cols     []string
		wantCond string
		wantLike string
	}{
		{
			name:     "empty term yields no clause",
			term:     "   ",
			cols:     []string{"email"},
			wantCond: "",
			wantLike: "",
		},
		{
			name:     "single column",
			term:     "Ada",
			cols:     []string{"email"},
			wantCond: "(LOWER(email) LIKE ?)",
			wantLike: "%ada%",
		},
		{
			name:     "multiple columns or-joined",
			term:     " Career Fair ",
			cols:     []string{"t.name", "i.location"},
			wantCond: "(LOWER(t.name) LIKE ? OR LOWER(i.location) LIKE ?)",
			wantLike: "%career fair%",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, like := searchClause(tt.term, tt.cols...)
			if cond != tt.wantCond {
				t.Errorf("cond = %q, want %q", cond, tt.wantCond)
			}
			if like != tt.wantLike {
				t.Errorf("like = %q, want %q", like, tt.wantLike)
			}
		})
	}
}

func TestIsDuplicateKey(t *testing.T) {
	if !isDuplicateKey(errors.New("Error 1062 (23000): Duplicate entry 'a@b.c' for key 'uq_participants_email'")) {
		t.Error("expected duplicate-key error to be recognized")
	}
	if isDuplicateKey(errors.New("Error 1452: foreign key constraint fails")) {
		t.Error("unrelated error misclassified as duplicate key")
	}
	if isDuplicateKey(nil) {
		t.Error("nil misclassified as duplicate key")
	}
}

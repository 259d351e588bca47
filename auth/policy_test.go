package auth

import (
	"testing"

	"github.com/formmind/formmind/model"
)

func TestCanMutate(t *testing.T) {
	tests := []struct {
		name      string
		role      model.Role
		actorID   int64
		creatorID int64
		want      bool
	}{
		{"owner edits own", model.RoleOwner, 1, 1, true},
		{"owner edits others", model.RoleOwner, 1, 2, true},
		{"admin edits others", model.RoleAdmin, 1, 2, true},
		{"editor edits own", model.RoleEditor, 3, 3, true},
		{"editor edits others", model.RoleEditor, 3, 2, false},
		{"unknown role", model.Role("VIEWER"), 1, 1, false},
		{"empty role", model.Role(""), 1, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMutate(tt.role, tt.actorID, tt.creatorID); got != tt.want {
				t.Errorf("CanMutate(%s, %d, %d) = %v, want %v",
					tt.role, tt.actorID, tt.creatorID, got, tt.want)
			}
		})
	}
}

func TestCanViewMatchesMutate(t *testing.T) {
	if !CanView(model.RoleEditor, 3, 3) {
		t.Error("editor should view own form")
	}
	if CanView(model.RoleEditor, 3, 2) {
		t.Error("editor should not view another editor's form")
	}
}

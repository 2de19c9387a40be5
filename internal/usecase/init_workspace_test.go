package usecase

import (
	"testing"

	"github.com/chiru781/cursior/internal/domain"
)

type recordingInitializer struct {
	spec  domain.WorkspaceSpec
	force bool
}

func (r *recordingInitializer) Init(spec domain.WorkspaceSpec, force bool) error {
	r.spec, r.force = spec, force
	return nil
}

func TestInitWorkspace_PassesRootAndForce(t *testing.T) {
	ri := &recordingInitializer{}
	if err := NewInitWorkspace(ri).Execute("/tmp/ws", true); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if ri.spec.Root != "/tmp/ws" || !ri.force {
		t.Fatalf("unexpected call: %+v force=%v", ri.spec, ri.force)
	}
}

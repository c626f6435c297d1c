package store

import (
	"errors"
	"testing"
)

func TestAuditTemplateGating(t *testing.T) {
	s := NewAuditsStore(newTestPolicy(t))
	if got := len(s.Templates()); got != 3 {
		t.Fatalf("expected 3 seeded templates, got %d", got)
	}
	tpl := AuditTemplate{Code: "SF-INS-004", Title: "Pipeline Pigging Review", Frequency: "Quarterly"}
	for _, actor := range []Actor{fieldWorker, supervisor} {
		if _, err := s.SaveTemplate(tpl, actor); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%s: err = %v, want ErrUnauthorized", actor.Role, err)
		}
	}
	if _, err := s.SaveTemplate(tpl, manager); err != nil {
		t.Fatalf("manager save: %v", err)
	}
	if _, err := s.SaveTemplate(tpl, compliance); err != nil {
		t.Fatalf("compliance save: %v", err)
	}
	if got := len(s.Templates()); got != 4 {
		t.Fatalf("expected 4 templates after save, got %d", got)
	}
}

func TestStartInspectionGating(t *testing.T) {
	s := NewAuditsStore(newTestPolicy(t))
	for _, actor := range []Actor{fieldWorker, compliance} {
		if _, err := s.StartInspection("SF-INS-001", actor); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%s: err = %v, want ErrUnauthorized", actor.Role, err)
		}
	}
	ins, err := s.StartInspection("sf-ins-001", supervisor)
	if err != nil {
		t.Fatalf("start inspection: %v", err)
	}
	if ins.TemplateCode != "SF-INS-001" {
		t.Fatalf("template code = %q, want SF-INS-001", ins.TemplateCode)
	}
	if _, err := s.StartInspection("SF-INS-999", manager); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("err = %v, want ErrInvalidReference", err)
	}
}

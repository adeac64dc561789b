package models

import "testing"

func TestAskRequest_Validate(t *testing.T) {
	r := &AskRequest{Question: "what is kotaeru?"}
	if err := r.Validate(5, 20); err != nil {
		t.Fatal(err)
	}
	if r.TopK != 5 {
		t.Errorf("default top_k: got %d", r.TopK)
	}

	r = &AskRequest{Question: "q", TopK: 50}
	if err := r.Validate(5, 20); err != nil {
		t.Fatal(err)
	}
	if r.TopK != 20 {
		t.Errorf("capped top_k: got %d", r.TopK)
	}

	r = &AskRequest{}
	if err := r.Validate(5, 20); err == nil {
		t.Error("empty question should fail")
	}

	r = &AskRequest{Question: "q", TopK: -1}
	if err := r.Validate(5, 20); err == nil {
		t.Error("negative top_k should fail")
	}
}

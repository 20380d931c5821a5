package main

import "testing"

func TestPhrase(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"first cue only", Request{Event: "cues", Cues: []string{"Hinge more at the hips.", "Level your hips."}}, "Hinge more at the hips."},
		{"dash becomes a pause", Request{Event: "cues", Cues: []string{"Less knee bend — micro-bend only."}}, "Less knee bend , micro-bend only."},
		{"clean rep", Request{Event: "cues", Cues: []string{}}, "Good form."},
		{"subject appears", Request{Event: "visibility", Visible: true}, "Tracking you now."},
		{"subject leaves", Request{Event: "visibility", Visible: false}, ""},
		{"unknown event", Request{Event: "score"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := phrase(tt.req); got != tt.want {
				t.Errorf("phrase() = %q, want %q", got, tt.want)
			}
		})
	}
}

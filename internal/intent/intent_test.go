package intent

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		discussionMode bool
		want           Intent
	}{
		{"plain build request", "make me a landing page for a coffee shop", false, Code},
		{"video keyword english", "generate a video about space", false, Video},
		{"video keyword russian", "сними видео про горы", false, Video},
		{"image keyword english", "draw an image of a dragon", false, Image},
		{"image keyword russian", "нарисуй кота", false, Image},
		{"discussion mode on", "make me a landing page", true, Discussion},
		{"video wins over discussion mode", "создай видео о природе", true, Video},
		{"image wins over discussion mode", "создай изображение заката", true, Image},
		{"video wins over image words", "генерирует видео с изображением города", false, Video},
		{"empty text", "", false, Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.text, tt.discussionMode); got != tt.want {
				t.Errorf("Classify(%q, %v) = %q, want %q", tt.text, tt.discussionMode, got, tt.want)
			}
		})
	}
}

func TestCost(t *testing.T) {
	tests := []struct {
		intent Intent
		want   int
	}{
		{Discussion, 0},
		{Code, 1},
		{Image, 5},
		{Video, 10},
	}
	for _, tt := range tests {
		if got := tt.intent.Cost(); got != tt.want {
			t.Errorf("%s.Cost() = %d, want %d", tt.intent, got, tt.want)
		}
	}
}

func TestSpecialTaskDetection(t *testing.T) {
	if !IsRefactorRequest("please refactor this code") {
		t.Error("refactor request not detected")
	}
	if !IsRefactorRequest("отрефактори код") {
		t.Error("russian refactor request not detected")
	}
	if !IsTestsRequest("add tests for the cart") {
		t.Error("tests request not detected")
	}
	if !IsTranslateRequest("переведи на vue") {
		t.Error("translate request not detected")
	}
	if !IsVariantRequest("make an a/b test of the landing") {
		t.Error("variant request not detected")
	}
	if IsVariantRequest("make a landing page") {
		t.Error("plain request flagged as variant")
	}
}

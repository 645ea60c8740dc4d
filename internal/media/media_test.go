package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jackzampolin/lessonkit/internal/failure"
	"github.com/jackzampolin/lessonkit/internal/prompts"
	"github.com/jackzampolin/lessonkit/internal/providers"
)

var (
	audioRules  = []string{"Provide audio narration of instructions"}
	visualRules = []string{"Add visual supports for key vocabulary"}
)

func TestFindDirectives(t *testing.T) {
	text := "A [Insert Image: a red apple] B [insert audio: Q1] C [INSERT IMAGE:  the sun ]"
	got := FindDirectives(text, Image)
	if len(got) != 2 {
		t.Fatalf("FindDirectives() = %d directives, want 2", len(got))
	}
	if got[0].Description != "a red apple" || got[1].Description != "the sun" || got[1].Slot != 1 {
		t.Errorf("FindDirectives() = %+v", got)
	}
	if text[got[0].Start:got[0].End] != "[Insert Image: a red apple]" {
		t.Errorf("offsets = %d..%d", got[0].Start, got[0].End)
	}
	if n := len(FindDirectives(text, Audio)); n != 1 {
		t.Errorf("audio directives = %d, want 1", n)
	}
}

func TestRuleActive(t *testing.T) {
	if RuleActive([]string{"Use short sentences"}, Audio) {
		t.Error("audio active without an audio rule")
	}
	if !RuleActive([]string{"Offer AUDIO support"}, Audio) {
		t.Error("audio rule not detected")
	}
	if !RuleActive([]string{"Use Visual organizers"}, Image) {
		t.Error("visual rule not detected")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		kind      Kind
		rules     []string
		artifacts []Artifact
		want      string
	}{
		{
			name:      "no active rule leaves text",
			text:      "Look [Insert Image: cat]",
			kind:      Image,
			rules:     audioRules,
			artifacts: []Artifact{{Path: "/x/cat.jpg", Slot: 0}},
			want:      "Look [Insert Image: cat]",
		},
		{
			name:      "slots replace directives",
			text:      "A [Insert Image: cat] B [Insert Image: dog]",
			kind:      Image,
			rules:     visualRules,
			artifacts: []Artifact{{Path: "/x/dog.jpg", Slot: 1}, {Path: "/x/cat.jpg", Slot: 0}},
			want:      "A [IMAGE:cat.jpg] B [IMAGE:dog.jpg]",
		},
		{
			name:      "directive without artifact stays literal",
			text:      "A [Insert Image: cat] B [Insert Image: dog]",
			kind:      Image,
			rules:     visualRules,
			artifacts: []Artifact{{Path: "/x/dog.jpg", Slot: 1}},
			want:      "A [Insert Image: cat] B [IMAGE:dog.jpg]",
		},
		{
			name:      "extra artifacts appended",
			text:      "A [Insert Image: cat]",
			kind:      Image,
			rules:     visualRules,
			artifacts: []Artifact{{Path: "/x/cat.jpg", Slot: 0}, {Path: "/x/more.jpg", Slot: NoSlot}},
			want:      "A [IMAGE:cat.jpg]\n\n[IMAGE:more.jpg]",
		},
		{
			name:      "anchored audio follows its paragraph",
			text:      "First.\n\nSecond.",
			kind:      Audio,
			rules:     audioRules,
			artifacts: []Artifact{{Path: "a1.mp3", Slot: NoSlot, Anchor: "First."}},
			want:      "First.\n\n[AUDIO:a1.mp3]\n\nSecond.",
		},
		{
			name:      "slot beyond directives appended",
			text:      "no directives here",
			kind:      Audio,
			rules:     audioRules,
			artifacts: []Artifact{{Path: "a.mp3", Slot: 3}},
			want:      "no directives here\n\n[AUDIO:a.mp3]",
		},
		{
			name:      "other kind untouched",
			text:      "[Insert Audio: Q1] [Insert Image: cat]",
			kind:      Audio,
			rules:     audioRules,
			artifacts: []Artifact{{Path: "q1.mp3", Slot: 0}},
			want:      "[AUDIO:q1.mp3] [Insert Image: cat]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.text, tt.kind, tt.rules, tt.artifacts)
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolve_NeverLosesArtifacts(t *testing.T) {
	texts := []string{
		"",
		"plain text",
		"[Insert Image: a]",
		"[Insert Image: a] and [Insert Image: b] and [Insert Image: c]",
	}
	for _, text := range texts {
		for n := 0; n <= 5; n++ {
			var artifacts []Artifact
			for i := 0; i < n; i++ {
				slot := NoSlot
				if i%2 == 0 {
					slot = i
				}
				artifacts = append(artifacts, Artifact{Path: fmt.Sprintf("/img/%d.png", i), Slot: slot, Anchor: "and"})
			}
			out := Resolve(text, Image, visualRules, artifacts)
			for _, a := range artifacts {
				if !strings.Contains(out, a.Filename()) {
					t.Errorf("text %q with %d artifacts lost %s:\n%s", text, n, a.Filename(), out)
				}
			}
		}
	}
}

func TestNarrationTargets(t *testing.T) {
	t.Run("directives narrate preceding paragraph", func(t *testing.T) {
		text := "# Title\n\nThe sun is a star. [Insert Audio: read this]\n\nQuestion 1?\n[Insert Audio: Question 1]"
		want := []Target{{Text: "The sun is a star.", Slot: 0}, {Text: "Question 1?", Slot: 1}}
		if diff := cmp.Diff(want, NarrationTargets(text)); diff != "" {
			t.Errorf("NarrationTargets() mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("every paragraph without directives", func(t *testing.T) {
		want := []Target{{Text: "One.", Slot: NoSlot}, {Text: "Two.", Slot: NoSlot}}
		if diff := cmp.Diff(want, NarrationTargets("One.\n\n \n\nTwo.")); diff != "" {
			t.Errorf("NarrationTargets() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestNarrator(t *testing.T) {
	dir := t.TempDir()
	tts := &providers.MockTTS{Audio: []byte("ID3"), FailOn: map[string]bool{"Broken.": true}}
	n := &Narrator{TTS: tts, Dir: dir, Voice: "sage"}

	text := "Hello class.\n\nBroken.\n\nGoodbye."
	got, paths, err := n.Narrate(context.Background(), text, audioRules)
	if err != nil {
		t.Fatalf("Narrate() error = %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want 2 files", paths)
	}
	for _, p := range paths {
		if filepath.Dir(p) != dir || !strings.HasPrefix(filepath.Base(p), "audio_") || filepath.Ext(p) != ".mp3" {
			t.Errorf("unexpected audio path %s", p)
		}
		data, err := os.ReadFile(p)
		if err != nil || string(data) != "ID3" {
			t.Errorf("audio file %s = %q, %v", p, data, err)
		}
	}
	want := fmt.Sprintf("Hello class.\n\n[AUDIO:%s]\n\nBroken.\n\nGoodbye.\n\n[AUDIO:%s]",
		filepath.Base(paths[0]), filepath.Base(paths[1]))
	if got != want {
		t.Errorf("Narrate() text = %q, want %q", got, want)
	}
	if diff := cmp.Diff([]string{"Hello class.", "Broken.", "Goodbye."}, tts.Texts()); diff != "" {
		t.Errorf("synthesized texts mismatch:\n%s", diff)
	}
}

func TestNarrator_NoAudioRule(t *testing.T) {
	tts := &providers.MockTTS{}
	n := &Narrator{TTS: tts, Dir: t.TempDir()}
	text := "Hello [Insert Audio: x]"
	got, paths, err := n.Narrate(context.Background(), text, visualRules)
	if err != nil {
		t.Fatal(err)
	}
	if got != text || len(paths) != 0 || len(tts.Texts()) != 0 {
		t.Errorf("Narrate() = %q, %v; synthesized %v", got, paths, tts.Texts())
	}
}

func serpAPIServer(t *testing.T, results map[string][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("engine") != "google_images" || q.Get("api_key") != "test-key" || q.Get("location") != "United States" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error": "Invalid API key."}`)
			return
		}
		var items []string
		for _, u := range results[q.Get("q")] {
			items = append(items, fmt.Sprintf(`{"thumbnail": "t", "original": %q}`, u))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"search_metadata": {"status": "Success"}, "images_results": [%s]}`, strings.Join(items, ","))
	}))
}

func TestSerpAPISearcher(t *testing.T) {
	srv := serpAPIServer(t, map[string][]string{
		"sun": {"https://img.test/sun1.jpg", "https://img.test/sun2.jpg"},
	})
	defer srv.Close()

	s := &SerpAPISearcher{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()}
	ctx := context.Background()

	got, err := s.Search(ctx, "sun", 1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"https://img.test/sun1.jpg"}, got); diff != "" {
		t.Errorf("Search() mismatch:\n%s", diff)
	}

	got, err = s.Search(ctx, "nothing", 1)
	if err != nil || len(got) != 0 {
		t.Errorf("Search(no results) = %v, %v; want empty and no error", got, err)
	}

	s.APIKey = "wrong"
	_, err = s.Search(ctx, "sun", 1)
	if !errors.Is(err, failure.ErrRetrieval) || failure.IsFatal(err) {
		t.Errorf("Search(bad key) error = %v, want skippable retrieval error", err)
	}
	if !strings.Contains(err.Error(), "Invalid API key") {
		t.Errorf("error does not carry the API message: %v", err)
	}

	s.APIKey = ""
	if _, err := s.Search(ctx, "sun", 1); !errors.Is(err, ErrMissingSerpAPIKey) {
		t.Errorf("Search(no key) error = %v", err)
	}
}

// pngHeader is enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func TestHTTPFetcher(t *testing.T) {
	var flaky atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpegdata"))
	})
	mux.HandleFunc("/sniffed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(pngHeader)
	})
	mux.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		if flaky.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngHeader)
	})
	var notFound atomic.Int32
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		notFound.Add(1)
		http.NotFound(w, r)
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>hi</body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	f := &HTTPFetcher{Dir: dir, Attempts: 3, HTTPClient: srv.Client()}
	ctx := context.Background()

	tests := []struct {
		path string
		ext  string
	}{
		{"/ok.jpg", ".jpg"},
		{"/sniffed", ".png"},
		{"/flaky", ".png"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := f.Fetch(ctx, srv.URL+tt.path)
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if filepath.Dir(p) != dir || filepath.Ext(p) != tt.ext || !strings.HasPrefix(filepath.Base(p), "image_") {
				t.Errorf("Fetch() path = %s", p)
			}
		})
	}

	for _, path := range []string{"/missing", "/page"} {
		t.Run(path, func(t *testing.T) {
			_, err := f.Fetch(ctx, srv.URL+path)
			if !errors.Is(err, failure.ErrRetrieval) || failure.IsFatal(err) {
				t.Fatalf("Fetch() error = %v, want skippable retrieval error", err)
			}
		})
	}
	if n := notFound.Load(); n != 1 {
		t.Errorf("404 fetched %d times, want 1", n)
	}
}

type stubSearcher map[string][]string

func (s stubSearcher) Search(_ context.Context, q string, count int) ([]string, error) {
	urls := s[q]
	if len(urls) > count {
		urls = urls[:count]
	}
	return urls, nil
}

type stubFetcher struct {
	fail map[string]bool
	n    int
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	if f.fail[url] {
		return "", failure.SkippableRetrieval("image-fetch", errors.New("boom"))
	}
	f.n++
	return fmt.Sprintf("/images/img%d.jpg", f.n), nil
}

func TestIllustrator_Directives(t *testing.T) {
	mock := providers.NewMockClient(`["unused"]`)
	il := &Illustrator{
		Searcher: stubSearcher{"a cat": {"u1"}, "a dog": {"u2"}, "a fish": {"u3"}},
		Fetcher:  &stubFetcher{fail: map[string]bool{"u3": true}},
		Client:   mock,
	}
	text := "[Insert Image: a cat] [Insert Image: a bird] [Insert Image: a dog] [Insert Image: a fish]"
	got, paths, err := il.Illustrate(context.Background(), text, visualRules)
	if err != nil {
		t.Fatal(err)
	}
	want := "[IMAGE:img1.jpg] [Insert Image: a bird] [IMAGE:img2.jpg] [Insert Image: a fish]"
	if got != want {
		t.Errorf("Illustrate() = %q, want %q", got, want)
	}
	if len(paths) != 2 {
		t.Errorf("paths = %v", paths)
	}
	if mock.RequestCount() != 0 {
		t.Error("topics requested despite directives")
	}
}

func TestIllustrator_Topics(t *testing.T) {
	resolver, err := prompts.NewDefaultResolver("", nil)
	if err != nil {
		t.Fatal(err)
	}
	mock := providers.NewMockClient("```python\n['solar system', 'sunlight']\n```")
	il := &Illustrator{
		Searcher: stubSearcher{"solar system": {"u1"}},
		Fetcher:  &stubFetcher{},
		Client:   mock,
		Prompts:  resolver,
	}
	got, paths, err := il.Illustrate(context.Background(), "The sun is a star.", visualRules)
	if err != nil {
		t.Fatal(err)
	}
	if got != "The sun is a star.\n\n[IMAGE:img1.jpg]" {
		t.Errorf("Illustrate() = %q", got)
	}
	if len(paths) != 1 {
		t.Errorf("paths = %v", paths)
	}
	req := mock.Requests()[0]
	if req.PromptKey != prompts.MediaVisualTopics || req.Temperature != topicsTemperature || req.Timeout != topicsTimeout {
		t.Errorf("topics request = %+v", req)
	}
}

func TestIllustrator_NoVisualRule(t *testing.T) {
	mock := providers.NewMockClient(`[]`)
	il := &Illustrator{Searcher: stubSearcher{}, Fetcher: &stubFetcher{}, Client: mock}
	got, paths, err := il.Illustrate(context.Background(), "text", audioRules)
	if err != nil || got != "text" || len(paths) != 0 || mock.RequestCount() != 0 {
		t.Errorf("Illustrate() = %q, %v, %v", got, paths, err)
	}
}

package vectorstore

import "testing"

func TestCollectionNameReplacesDashes(t *testing.T) {
	got := collectionName("openai-small")
	want := "krira__openai_small"
	if got != want {
		t.Errorf("collectionName() = %q, want %q", got, want)
	}
}

func TestPointIDWithoutNamespace(t *testing.T) {
	got := pointID("", "ds-1", 3)
	want := "ds-1::3"
	if got != want {
		t.Errorf("pointID() = %q, want %q", got, want)
	}
}

func TestPointIDWithNamespace(t *testing.T) {
	got := pointID("ns", "ds-1", 3)
	want := "ns::ds-1::3"
	if got != want {
		t.Errorf("pointID() = %q, want %q", got, want)
	}
}

func TestDeterministicPointUUIDIsStable(t *testing.T) {
	a := deterministicPointUUID("ds-1::3")
	b := deterministicPointUUID("ds-1::3")
	if a != b {
		t.Errorf("deterministicPointUUID() not stable: %q != %q", a, b)
	}
	c := deterministicPointUUID("ds-1::4")
	if a == c {
		t.Errorf("deterministicPointUUID() collided for different input")
	}
}

func TestClampTopK(t *testing.T) {
	cases := map[int]int{0: 1, -5: 1, 50: 50, 200: 200, 500: 200}
	for in, want := range cases {
		if got := clampTopK(in); got != want {
			t.Errorf("clampTopK(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestMetadataForTruncatesText(t *testing.T) {
	longText := make([]rune, MetadataTextLimit+100)
	for i := range longText {
		longText[i] = 'x'
	}
	meta := metadataFor(DatasetInfo{ID: "d1", Label: "L", SourceType: "csv"}, "openai-small", 0, string(longText))
	if len(meta["chunk_text"]) != MetadataTextLimit {
		t.Errorf("chunk_text length = %d, want %d", len([]rune(meta["chunk_text"])), MetadataTextLimit)
	}
	if meta["dataset_id"] != "d1" {
		t.Errorf("dataset_id = %q, want d1", meta["dataset_id"])
	}
}

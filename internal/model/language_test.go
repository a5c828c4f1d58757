package model

import (
	"testing"
)

// TestLanguageDistribution tests counting and derived figures.
func TestLanguageDistribution(t *testing.T) {
	t.Parallel()

	build := func() LanguageDistribution {
		d := NewLanguageDistribution()
		d.Add("en", 0.9)
		d.Add("en", 0.7)
		d.Add("de", 0.8)
		d.Add(UnknownLanguage, 0)
		return d
	}

	t.Run("counts", func(t *testing.T) {
		t.Parallel()

		d := build()
		if d.Samples != 4 {
			t.Errorf("Samples = %d, want 4", d.Samples)
		}
		if d.Count("en") != 2 || d.Count("fr") != 0 {
			t.Errorf("unexpected counts %v", d.Counts)
		}
		if d.Determinate() != 3 {
			t.Errorf("Determinate() = %d, want 3", d.Determinate())
		}
	})

	t.Run("sorted by count then code", func(t *testing.T) {
		t.Parallel()

		rows := build().Sorted()
		want := []string{"en", "de", UnknownLanguage}
		if len(rows) != len(want) {
			t.Fatalf("expected %d rows, got %d", len(want), len(rows))
		}
		for i, code := range want {
			if rows[i].Code != code {
				t.Errorf("rows[%d].Code = %q, want %q", i, rows[i].Code, code)
			}
		}
		if rows[0].Percent != 50 {
			t.Errorf("en percent = %v, want 50", rows[0].Percent)
		}
	})

	t.Run("merge and clone", func(t *testing.T) {
		t.Parallel()

		d := build()
		clone := d.Clone()
		clone.Add("fr", 1)
		if d.Count("fr") != 0 {
			t.Error("clone shares counts with the original")
		}

		var zero LanguageDistribution
		zero.Merge(d)
		if zero.Samples != 4 || zero.Count("en") != 2 {
			t.Errorf("Merge() = %+v", zero)
		}
		sum := 0
		for _, n := range zero.Counts {
			sum += n
		}
		if sum != zero.Samples {
			t.Errorf("counts sum to %d, samples %d", sum, zero.Samples)
		}
	})

	t.Run("empty distribution", func(t *testing.T) {
		t.Parallel()

		var d LanguageDistribution
		if rows := d.Sorted(); len(rows) != 0 {
			t.Errorf("expected no rows, got %v", rows)
		}
		if d.Determinate() != 0 {
			t.Error("expected zero determinate samples")
		}
	})
}

func TestLanguageSampleIsUnknown(t *testing.T) {
	t.Parallel()

	if !(LanguageSample{LanguageCode: UnknownLanguage}).IsUnknown() {
		t.Error("expected unknown sample")
	}
	if (LanguageSample{LanguageCode: EnglishLanguage}).IsUnknown() {
		t.Error("expected known sample")
	}
}

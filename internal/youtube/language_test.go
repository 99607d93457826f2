package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectTrackOrder(t *testing.T) {
	langs := []string{"de", "en"}
	manualDE := Track{LanguageCode: "de", BaseURL: "de"}
	manualEN := Track{LanguageCode: "en", BaseURL: "en"}
	autoDE := Track{LanguageCode: "de", BaseURL: "de-asr", Generated: true}
	autoEN := Track{LanguageCode: "en", BaseURL: "en-asr", Generated: true}
	manualFR := Track{LanguageCode: "fr", BaseURL: "fr"}

	cases := []struct {
		name   string
		tracks []Track
		want   string
	}{
		{"primary manual wins over everything", []Track{autoDE, manualEN, manualDE}, "de"},
		{"generated primary beats manual secondary", []Track{manualEN, autoDE}, "de-asr"},
		{"manual primary preferred within its language", []Track{autoDE, manualDE}, "de"},
		{"manual secondary when primary is missing", []Track{autoEN, manualEN, manualFR}, "en"},
		{"generated primary when no manual match", []Track{manualFR, autoEN, autoDE}, "de-asr"},
		{"generated secondary as last resort", []Track{manualFR, autoEN}, "en-asr"},
		{"language codes compare case-insensitively", []Track{{LanguageCode: "DE", BaseURL: "DE"}}, "DE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SelectTrack(tc.tracks, langs)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.BaseURL)
		})
	}
}

func TestSelectTrackNeverReturnsNonPreferredLanguage(t *testing.T) {
	tracks := []Track{
		{LanguageCode: "fr", BaseURL: "fr"},
		{LanguageCode: "es", BaseURL: "es-asr", Generated: true},
	}
	_, err := SelectTrack(tracks, []string{"de", "en"})
	require.ErrorIs(t, err, ErrTranscriptNotFound)
	assert.Contains(t, err.Error(), "fr")
	assert.Contains(t, err.Error(), "es(auto)")
}

func TestFallbackTiersShape(t *testing.T) {
	tiers := fallbackTiers([]string{"de", "en"})
	require.Len(t, tiers, 3)
	assert.Equal(t, "language:de", tiers[0].name)
	assert.Equal(t, "language:en", tiers[1].name)
	assert.Equal(t, "generated:de,en", tiers[2].name)
}

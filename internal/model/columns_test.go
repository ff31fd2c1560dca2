package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringSliceValue(t *testing.T) {
	v, err := StringSlice{"react", "favorite"}.Value()
	require.NoError(t, err)
	assert.Equal(t, "react,favorite", v)

	v, err = StringSlice{}.Value()
	require.NoError(t, err)
	assert.Equal(t, "", v)

	// Commas would corrupt the joined form
	_, err = StringSlice{"a,b"}.Value()
	assert.Error(t, err)
}

func TestStringSliceScan(t *testing.T) {
	var s StringSlice

	require.NoError(t, s.Scan("react,favorite"))
	assert.Equal(t, StringSlice{"react", "favorite"}, s)

	require.NoError(t, s.Scan(""))
	assert.Empty(t, s)

	require.NoError(t, s.Scan(nil))
	assert.Empty(t, s)

	require.NoError(t, s.Scan([]byte("react")))
	assert.Equal(t, StringSlice{"react"}, s)

	assert.Error(t, s.Scan(42))
}

func TestStringSliceHasWithout(t *testing.T) {
	s := StringSlice{"react", "favorite"}

	assert.True(t, s.Has("react"))
	assert.False(t, s.Has("reacted"))

	assert.Equal(t, StringSlice{"favorite"}, s.Without("react"))
	assert.Equal(t, s, s.Without("missing"))
}

func TestCountMapRoundTrip(t *testing.T) {
	v, err := CountMap{"image/png": 3, "Tenor Gif": 1}.Value()
	require.NoError(t, err)

	var m CountMap
	require.NoError(t, m.Scan(v))

	assert.EqualValues(t, 3, m["image/png"])
	assert.EqualValues(t, 1, m["Tenor Gif"])

	require.NoError(t, m.Scan(nil))
	assert.Empty(t, m)
}

func TestWeeklyUserMapRoundTrip(t *testing.T) {
	v, err := WeeklyUserMap{
		"u1": {UploadCount: 2, TotalSize: 300, LastUpdated: 1700000000000},
	}.Value()
	require.NoError(t, err)

	var m WeeklyUserMap
	require.NoError(t, m.Scan(v))

	require.Contains(t, m, "u1")
	assert.EqualValues(t, 2, m["u1"].UploadCount)
	assert.EqualValues(t, 300, m["u1"].TotalSize)
}

func TestMediaRemote(t *testing.T) {
	assert.True(t, (&Media{Source: SourceTenor}).Remote())
	assert.True(t, (&Media{Source: SourceURL, Locator: "https://cdn.example.com/a.png"}).Remote())
	assert.False(t, (&Media{Source: SourceAttachment, Locator: "/data/images/a.png"}).Remote())
}

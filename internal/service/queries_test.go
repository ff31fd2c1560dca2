package service

import (
	"testing"

	"bitwise74/gallery-bot/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedQueryMedia(t *testing.T, db *gorm.DB) {
	t.Helper()

	media := []model.Media{
		{Filename: "a.png", ContentType: "image/png", AuthorID: "u1", MessageID: "msg-a", Source: model.SourceAttachment, Tags: model.StringSlice{model.ReactTag}},
		{Filename: "b.jpg", ContentType: "image/jpeg", AuthorID: "u1", MessageID: "msg-b", Source: model.SourceAttachment, Tags: model.StringSlice{}},
		{Filename: "c.gif", ContentType: "image/gif", AuthorID: "u1", MessageID: "msg-c", Source: model.SourceURL, Tags: model.StringSlice{}},
		{Filename: "tenor-cat-1", Locator: "https://tenor.com/view/cat-1", AuthorID: "u2", MessageID: "msg-d", Source: model.SourceTenor, Tags: model.StringSlice{}},
	}

	for i := range media {
		media[i].CreatedAt = 1700000000000
		require.NoError(t, db.Create(&media[i]).Error)
	}
}

func TestCountMedia(t *testing.T) {
	db := newTestDB(t)
	seedQueryMedia(t, db)

	n, err := CountMedia(t.Context(), db)
	require.NoError(t, err)

	assert.EqualValues(t, 4, n)
}

func TestRandomMedia(t *testing.T) {
	db := newTestDB(t)

	_, err := RandomMedia(t.Context(), db, "")
	assert.ErrorIs(t, err, ErrNotFound)

	seedQueryMedia(t, db)

	m, err := RandomMedia(t.Context(), db, "")
	require.NoError(t, err)
	assert.NotEmpty(t, m.Filename)

	gif, err := RandomMedia(t.Context(), db, "gif")
	require.NoError(t, err)
	assert.Equal(t, model.SourceTenor, gif.Source)

	img, err := RandomMedia(t.Context(), db, "img")
	require.NoError(t, err)
	assert.NotEqual(t, model.SourceTenor, img.Source)
}

func TestRandomReactMedia(t *testing.T) {
	db := newTestDB(t)
	seedQueryMedia(t, db)

	// Only a.png carries the tag
	for range 5 {
		m, err := RandomReactMedia(t.Context(), db, "")
		require.NoError(t, err)
		assert.Equal(t, "a.png", m.Filename)
	}

	// "reacted" must not match as a partial
	err := db.Create(&model.Media{
		Filename:  "trap.png",
		AuthorID:  "u3",
		Source:    model.SourceAttachment,
		Tags:      model.StringSlice{"reacted"},
		CreatedAt: 1700000000000,
	}).Error
	require.NoError(t, err)

	for range 5 {
		m, err := RandomReactMedia(t.Context(), db, "")
		require.NoError(t, err)
		assert.Equal(t, "a.png", m.Filename)
	}
}

func TestUserImagesExcludesGifs(t *testing.T) {
	db := newTestDB(t)
	seedQueryMedia(t, db)

	media, err := UserImages(t.Context(), db, "u1")
	require.NoError(t, err)

	require.Len(t, media, 2)
	for _, m := range media {
		assert.NotContains(t, m.Filename, ".gif")
	}
}

func TestFindByMessageID(t *testing.T) {
	db := newTestDB(t)
	seedQueryMedia(t, db)

	m, err := FindByMessageID(t.Context(), db, "msg-b")
	require.NoError(t, err)
	assert.Equal(t, "b.jpg", m.Filename)

	_, err = FindByMessageID(t.Context(), db, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

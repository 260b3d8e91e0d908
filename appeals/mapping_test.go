package appeals_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/go-appeals-client/appeals"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) appeals.WireAppeal {
	t.Helper()
	var w appeals.WireAppeal
	require.NoError(t, json.Unmarshal([]byte(body), &w))
	return w
}

func TestMap(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		a := appeals.Map(decode(t, `{
			"id": 14,
			"reference_number": "2025-0014",
			"region": "Nukus",
			"status": "Отклонено",
			"category": {"id": 2, "name": "Дороги"},
			"created_at": "20/08/2025 13:05",
			"text": "Яма на дороге",
			"appeal_files": [{"id": 3, "file": "/media/a.jpg"}],
			"appeal_response": {
				"id": 7,
				"text": "Отремонтировано",
				"response_files": [{"id": "9", "file": "/media/b.pdf"}],
				"answerer": {"full_name": "Hokim", "phone": "+998"}
			}
		}`))

		require.Equal(t, "14", a.ID)
		require.Equal(t, "N°2025-0014", a.Number)
		require.Equal(t, "Дороги", a.Category)
		require.Equal(t, "г. Нукус", a.Region)
		require.Equal(t, "Nukus", a.RegionCode)
		require.Equal(t, "20/08/2025", a.Date)
		require.Equal(t, time.Date(2025, 8, 20, 13, 5, 0, 0, time.UTC), a.CreatedAt)
		require.Equal(t, appeals.StatusRejected, a.Status)
		require.Equal(t, []appeals.File{{ID: 3, File: "/media/a.jpg"}}, a.Files)
		require.NotNil(t, a.Response)
		require.Equal(t, 7, a.Response.ID)
		require.Equal(t, []appeals.File{{ID: 9, File: "/media/b.pdf"}}, a.Response.Files)
		require.Equal(t, "Hokim", a.Response.Answerer.FullName)
	})

	t.Run("fallbacks", func(t *testing.T) {
		a := appeals.Map(decode(t, `{
			"id": "x1",
			"status": "mystery",
			"category": null,
			"text": "   ",
			"sender": {"region": "bukhara"},
			"appeal_response": null
		}`))

		require.Equal(t, "N°Unknown", a.Number)
		require.Equal(t, appeals.DefaultCategoryName, a.Category)
		require.Equal(t, appeals.DefaultAppealText, a.Text)
		require.Equal(t, "Бухарская область", a.Region)
		require.Equal(t, appeals.StatusUnderReview, a.Status)
		require.True(t, a.CreatedAt.IsZero())
		require.Empty(t, a.Files)
		require.Nil(t, a.Response)
	})

	t.Run("files preferred over appeal_files", func(t *testing.T) {
		a := appeals.Map(decode(t, `{"files":[{"file":"f"}],"appeal_files":[{"id":1,"file":"g"}],"category":"Свет"}`))
		require.Equal(t, []appeals.File{{ID: 0, File: "f"}}, a.Files)
		require.Equal(t, "Свет", a.Category)
	})

	t.Run("appeal_number used when reference missing", func(t *testing.T) {
		a := appeals.Map(decode(t, `{"appeal_number": 501}`))
		require.Equal(t, "N°501", a.Number)
		require.Equal(t, "0", a.ID)
	})

	t.Run("response without text", func(t *testing.T) {
		a := appeals.Map(decode(t, `{"appeal_response": {"id": 2}}`))
		require.Equal(t, appeals.DefaultResponseText, a.Response.Text)
	})
}

func TestMapStatus(t *testing.T) {
	tests := map[string]appeals.Status{
		"Отправлено":      appeals.StatusUnderReview,
		"на рассмотрении": appeals.StatusUnderReview,
		"ОТКАЗАНО":        appeals.StatusRejected,
		"accepted":        appeals.StatusCompleted,
		"Выполнено":       appeals.StatusCompleted,
		"":                appeals.StatusUnderReview,
	}
	for in, want := range tests {
		require.Equal(t, want, appeals.MapStatus(in), in)
	}
}

func TestRegionDisplayName(t *testing.T) {
	require.Equal(t, "г. Ташкент", appeals.RegionDisplayName("TASHKENT"))
	require.Equal(t, "somewhere", appeals.RegionDisplayName("somewhere"))
	require.Len(t, appeals.Regions(), 15)
}

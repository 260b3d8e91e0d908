package apimodel_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-appeals-client/apimodel"
	"github.com/stretchr/testify/require"
)

func TestUserIDAcceptsStringOrNumber(t *testing.T) {
	var u apimodel.User
	require.NoError(t, json.Unmarshal([]byte(`{"id":42,"full_name":"Ali"}`), &u))
	require.Equal(t, apimodel.FlexID("42"), u.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"u-7"}`), &u))
	require.Equal(t, "u-7", u.ID.String())

	require.Error(t, json.Unmarshal([]byte(`{"id":{"x":1}}`), &u))
}

func TestPageHasNext(t *testing.T) {
	next := "https://eappeal.uz/api/appeals/me?limit=10&offset=10"
	require.True(t, (&apimodel.Page[int]{Next: &next}).HasNext())
	require.False(t, (&apimodel.Page[int]{}).HasNext())

	var nilPage *apimodel.Page[int]
	require.False(t, nilPage.HasNext())
}

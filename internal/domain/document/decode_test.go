package document_test

import (
	"testing"

	"github.com/ganot/sitesync/internal/decode"
	"github.com/ganot/sitesync/internal/domain/document"
	"github.com/stretchr/testify/require"
)

func TestDecodeList(t *testing.T) {
	raw := []byte(`[
		{"id":1,"name":"Spec Book","folder":{"name":"Specs"},"revisions":[
			{"id":11,"versionNumber":2,"fileName":"spec-v2.pdf","status":"current"},
			{"id":10,"versionNumber":1,"fileName":"spec-v1.pdf"},
			{"id":12}
		]},
		{"id":2,"title":"Site Logistics","folder":"Plans/Logistics"}
	]`)

	docs, err := document.DecodeList(raw, 5)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	require.Equal(t, "Specs", docs[0].Folder)
	require.Equal(t, 5, docs[0].ProjectID)
	require.Len(t, docs[0].Revisions, 2)

	latest, ok := docs[0].Latest()
	require.True(t, ok)
	require.Equal(t, 11, latest.ID)
	require.Equal(t, "current", latest.Status.Or(""))

	oldest := docs[0].Revisions[1]
	require.False(t, oldest.Status.Valid)

	require.Equal(t, "Site Logistics", docs[1].Name)
	require.Equal(t, "Plans/Logistics", docs[1].Folder)
	_, ok = docs[1].Latest()
	require.False(t, ok)
}

func TestDecodeList_MissingName(t *testing.T) {
	_, err := document.DecodeList([]byte(`[{"id":1}]`), 5)
	require.ErrorIs(t, err, decode.ErrDecode)
	require.Contains(t, err.Error(), "$[0].name")
}

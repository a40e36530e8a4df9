package pagination

import (
	"encoding/base64"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_EncodeDecode(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)

	token := Cursor{CreatedAt: ts, ID: "turn-1"}.Encode()
	require.NotEmpty(t, token)
	assert.Equal(t, token, url.QueryEscape(token))

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "turn-1", cursor.ID)
	assert.True(t, cursor.CreatedAt.Equal(ts))
}

func TestCursor_EncodeEmptyID(t *testing.T) {
	assert.Empty(t, Cursor{CreatedAt: time.Now()}.Encode())
}

func TestDecodeCursor(t *testing.T) {
	enc := base64.RawURLEncoding.EncodeToString

	tests := []struct {
		name    string
		input   string
		wantNil bool
		wantErr error
	}{
		{name: "empty", input: "", wantNil: true},
		{name: "not base64", input: "%%%", wantErr: ErrInvalidCursor},
		{name: "missing separator", input: enc([]byte("abc")), wantErr: ErrInvalidCursor},
		{name: "missing id", input: enc([]byte("1700000000:")), wantErr: ErrInvalidCursor},
		{name: "bad timestamp", input: enc([]byte("yesterday:abc")), wantErr: ErrInvalidCursor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor, err := DecodeCursor(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, cursor)
			}
		})
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{input: "", want: 0},
		{input: "0", want: 0},
		{input: "25", want: 25},
		{input: "-1", wantErr: true},
		{input: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLimit(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLimit)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, ClampLimit(0, 20, 100))
	assert.Equal(t, 20, ClampLimit(-5, 20, 100))
	assert.Equal(t, 7, ClampLimit(7, 20, 100))
	assert.Equal(t, 100, ClampLimit(500, 20, 100))
}

func TestNewPage(t *testing.T) {
	type item struct {
		id string
		at time.Time
	}
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []item{{"a", ts}, {"b", ts.Add(time.Second)}, {"c", ts.Add(2 * time.Second)}}
	position := func(i item) Cursor { return Cursor{CreatedAt: i.at, ID: i.id} }

	last := NewPage(items, 3, position)
	assert.Len(t, last.Items, 3)
	assert.False(t, last.HasMore)
	assert.Empty(t, last.Cursor)

	empty := NewPage([]item{}, 2, position)
	assert.Empty(t, empty.Items)
	assert.False(t, empty.HasMore)

	first := NewPage(items, 2, position)
	require.Len(t, first.Items, 2)
	assert.True(t, first.HasMore)

	cursor, err := DecodeCursor(first.Cursor)
	require.NoError(t, err)
	assert.Equal(t, "b", cursor.ID)
	assert.True(t, cursor.CreatedAt.Equal(ts.Add(time.Second)))
}

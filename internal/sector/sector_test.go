package sector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordAll records one mismatch in every category, the way a decoder
// would for a candidate that is wrong everywhere.
func recordAll(ignore Category) Error {
	var e Error
	for _, cat := range Categories() {
		e.Record(cat, ignore)
	}
	return e
}

func TestError_IgnoreIndependence(t *testing.T) {
	for _, cat := range Categories() {
		t.Run(cat.String(), func(t *testing.T) {
			e := recordAll(cat)
			assert.Equal(t, AllCategories&^cat, e.Flags, "hard categories")
			assert.Equal(t, cat, e.Warn, "warning categories")
			assert.Equal(t, 5, e.Errors)
			assert.Equal(t, 1, e.Warnings)
		})
	}
}

func TestError_NoIgnore(t *testing.T) {
	e := recordAll(0)
	assert.Equal(t, AllCategories, e.Flags)
	assert.Zero(t, e.Warn)
	assert.Equal(t, 6, e.Errors)
	assert.False(t, e.Good())
}

func TestError_IgnoreAll(t *testing.T) {
	e := recordAll(AllCategories)
	assert.Zero(t, e.Flags)
	assert.Equal(t, 6, e.Warnings)
	assert.True(t, e.Good())
}

func TestError_RecordN(t *testing.T) {
	var e Error
	e.RecordN(Encoding, 0, 0)
	assert.Equal(t, Error{}, e)
	e.RecordN(Encoding, 0, 3)
	assert.Equal(t, Error{Flags: Encoding, Errors: 3}, e)
}

func TestError_Better(t *testing.T) {
	tests := []struct {
		name string
		a, b Error
		want bool
	}{
		{"fewer errors", Error{Errors: 1}, Error{Errors: 2}, true},
		{"more errors", Error{Errors: 2, Warnings: 0}, Error{Errors: 1, Warnings: 9}, false},
		{"fewer warnings", Error{Warnings: 1}, Error{Warnings: 2}, true},
		{"equal", Error{Errors: 1, Warnings: 1}, Error{Errors: 1, Warnings: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Better(tt.b))
		})
	}
}

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "none", Category(0).String())
	assert.Equal(t, "checksum", Checksum.String())
	assert.Equal(t, "id|size|checksum", (ID | Size | Checksum).String())
}

func TestSetIgnoreOption(t *testing.T) {
	var mask Category

	ok, err := SetIgnoreOption(&mask, "ignore_checksum", 1)
	require.True(t, ok)
	require.NoError(t, err)
	ok, err = SetIgnoreOption(&mask, "ignore_not_found", 1)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, Checksum|NotFound, mask)

	_, err = SetIgnoreOption(&mask, "ignore_checksum", 0)
	require.NoError(t, err)
	assert.Equal(t, NotFound, mask)

	ok, err = SetIgnoreOption(&mask, "ignore_size", 2)
	assert.True(t, ok)
	assert.Error(t, err)

	ok, _ = SetIgnoreOption(&mask, "ignore_everything", 1)
	assert.False(t, ok)
	ok, _ = SetIgnoreOption(&mask, "sectors", 1)
	assert.False(t, ok)
}

func TestTrack_Submit(t *testing.T) {
	tr := NewTrack(3)
	bad := Sector{Number: 1, Data: []byte{1}, Err: Error{Flags: Checksum, Errors: 1}}
	good := Sector{Number: 1, Data: []byte{2}}
	worse := Sector{Number: 1, Data: []byte{3}, Err: Error{Flags: Checksum | ID, Errors: 2}}

	tr.Submit(bad)
	tr.Submit(good)
	tr.Submit(worse)
	tr.Submit(Sector{Number: 5})

	assert.Equal(t, 4, tr.Candidates())
	s, ok := tr.Sector(1)
	require.True(t, ok)
	assert.Equal(t, []byte{2}, s.Data)
	assert.Equal(t, 1, tr.Good())
	assert.False(t, tr.Complete())

	_, ok = tr.Sector(0)
	assert.False(t, ok)
	assert.Len(t, tr.Sectors(), 1)
}

func TestTrack_CopiesPayload(t *testing.T) {
	tr := NewTrack(1)
	buf := []byte{1, 2, 3}
	tr.Submit(Sector{Number: 0, Data: buf})
	buf[0] = 9
	s, _ := tr.Sector(0)
	assert.Equal(t, byte(1), s.Data[0])
	assert.True(t, tr.Complete())
}

func TestSubmitFunc(t *testing.T) {
	var got []int
	var sub Submitter = SubmitFunc(func(s Sector) { got = append(got, s.Number) })
	sub.Submit(Sector{Number: 4})
	sub.Submit(Sector{Number: 2})
	assert.Equal(t, []int{4, 2}, got)
}

func TestFind(t *testing.T) {
	sectors := []Sector{{Number: 2}, {Number: 0, Data: []byte{7}}}
	s, ok := Find(sectors, 0)
	require.True(t, ok)
	assert.Equal(t, []byte{7}, s.Data)
	_, ok = Find(sectors, 1)
	assert.False(t, ok)
}

package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/returnsdesk/internal/schema"
)

type fakeResetter struct {
	calls  []schema.RecordType
	failOn schema.RecordType
}

func (f *fakeResetter) ResetRecords(ctx context.Context, rt schema.RecordType) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("reset without deadline")
	}
	if rt == f.failOn {
		return errors.New("connection reset by peer")
	}
	f.calls = append(f.calls, rt)
	return nil
}

func TestResetAll(t *testing.T) {
	r := &fakeResetter{}
	done, err := ResetAll(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, schema.Types(), done)
	assert.Equal(t, schema.Types(), r.calls)
}

func TestReset_StopsAtFirstFailure(t *testing.T) {
	r := &fakeResetter{failOn: schema.Order}
	done, err := Reset(context.Background(), r, schema.ReturnedPart, schema.Order)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reset order")
	assert.Equal(t, []schema.RecordType{schema.ReturnedPart}, done)
}

func TestReset_UnknownType(t *testing.T) {
	r := &fakeResetter{}
	_, err := Reset(context.Background(), r, "invoice")

	assert.ErrorIs(t, err, schema.ErrUnknownRecordType)
	assert.Empty(t, r.calls)
}

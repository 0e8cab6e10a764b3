package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadSetLifecycle(t *testing.T) {
	set := NewUploadSet()
	require.Len(t, set, 5)
	assert.False(t, set.AllUploaded())
	assert.Len(t, set.Pending(), 5)

	set.SetLocalImage(UploadDocFront, true)
	set.MarkUploaded(UploadDocFront)
	assert.True(t, set.Slot(UploadDocFront).Uploaded)
	assert.Len(t, set.Pending(), 4)

	for _, k := range []UploadKind{UploadDocBack, UploadVehicleFront, UploadVehicleSide, UploadTagAffixed} {
		set.SetLocalImage(k, true)
		set.MarkUploaded(k)
	}
	assert.True(t, set.AllUploaded())
	assert.Empty(t, set.Pending())
}

func TestReplacingImageClearsUploadedFlag(t *testing.T) {
	set := NewUploadSet()
	set.SetLocalImage(UploadTagAffixed, true)
	set.MarkUploaded(UploadTagAffixed)
	require.True(t, set.Slot(UploadTagAffixed).Uploaded)

	// re-capturing the photo invalidates the previous upload
	set.SetLocalImage(UploadTagAffixed, true)
	assert.False(t, set.Slot(UploadTagAffixed).Uploaded)
	assert.True(t, set.Slot(UploadTagAffixed).HasLocalImage)

	set.MarkUploaded(UploadTagAffixed)
	set.SetLocalImage(UploadTagAffixed, false)
	assert.False(t, set.Slot(UploadTagAffixed).Uploaded)
	assert.False(t, set.Slot(UploadTagAffixed).HasLocalImage)
}

func TestSlotUnknownKindIsEmpty(t *testing.T) {
	set := UploadSet{}
	slot := set.Slot(UploadDocFront)
	assert.Equal(t, UploadDocFront, slot.Kind)
	assert.False(t, slot.Uploaded)
	assert.False(t, KnownUploadKind(UploadKind("selfie")))
}

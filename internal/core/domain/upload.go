package domain

// UploadKind identifies one of the fixed required document uploads.
type UploadKind string

// The five required document uploads of every registration.
const (
	UploadDocFront     UploadKind = "doc-front"
	UploadDocBack      UploadKind = "doc-back"
	UploadVehicleFront UploadKind = "vehicle-front"
	UploadVehicleSide  UploadKind = "vehicle-side"
	UploadTagAffixed   UploadKind = "tag-affixed"
)

var uploadKinds = []UploadKind{
	UploadDocFront,
	UploadDocBack,
	UploadVehicleFront,
	UploadVehicleSide,
	UploadTagAffixed,
}

// UploadKinds returns the fixed set of required uploads in upload order.
func UploadKinds() []UploadKind {
	out := make([]UploadKind, len(uploadKinds))
	copy(out, uploadKinds)
	return out
}

// KnownUploadKind tells whether the given kind is one of the required five.
func KnownUploadKind(kind UploadKind) bool {
	for _, k := range uploadKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// UploadSlot tracks one required document upload. Uploaded is sticky: once a
// slot has been sent successfully it is not re-sent, unless the local image is
// removed or replaced, which clears the flag first.
type UploadSlot struct {
	Kind          UploadKind `json:"kind"`
	HasLocalImage bool       `json:"hasLocalImage"`
	Uploaded      bool       `json:"uploaded"`
}

// UploadSet holds the five upload slots of one registration.
type UploadSet map[UploadKind]UploadSlot

// NewUploadSet returns a set with all five slots empty.
func NewUploadSet() UploadSet {
	s := make(UploadSet, len(uploadKinds))
	for _, k := range uploadKinds {
		s[k] = UploadSlot{Kind: k}
	}
	return s
}

// Slot returns the slot for a kind, creating an empty one for sets read from
// storage rows that predate a kind.
func (s UploadSet) Slot(kind UploadKind) UploadSlot {
	if slot, ok := s[kind]; ok {
		return slot
	}
	return UploadSlot{Kind: kind}
}

// SetLocalImage marks a slot as having a local image. Replacing the image of
// an already uploaded slot invalidates the previous upload.
func (s UploadSet) SetLocalImage(kind UploadKind, present bool) {
	slot := s.Slot(kind)
	if slot.Uploaded {
		slot.Uploaded = false
	}
	slot.HasLocalImage = present
	s[kind] = slot
}

// MarkUploaded flags a slot as uploaded.
func (s UploadSet) MarkUploaded(kind UploadKind) {
	slot := s.Slot(kind)
	slot.Uploaded = true
	s[kind] = slot
}

// AllUploaded reports whether every required slot has been uploaded. This is
// the predicate that gates the transition past the document stage.
func (s UploadSet) AllUploaded() bool {
	for _, k := range uploadKinds {
		if !s.Slot(k).Uploaded {
			return false
		}
	}
	return true
}

// Pending returns the kinds still waiting for a successful upload.
func (s UploadSet) Pending() []UploadKind {
	var out []UploadKind
	for _, k := range uploadKinds {
		if !s.Slot(k).Uploaded {
			out = append(out, k)
		}
	}
	return out
}

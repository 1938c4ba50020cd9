package types

// PhotoLabel names one of the three required enrollment angles. The labels
// double as file names in the enrollment store ("front.png" etc), so the
// set and spelling are part of the contract with the verification service.
type PhotoLabel string

const (
	PhotoFront PhotoLabel = "front"
	PhotoLeft  PhotoLabel = "left"
	PhotoRight PhotoLabel = "right"
)

// PhotoLabels lists the required angles in enrollment order.
var PhotoLabels = []PhotoLabel{PhotoFront, PhotoLeft, PhotoRight}

// PhotoSet carries the image bytes for a full three-angle enrollment.
type PhotoSet map[PhotoLabel][]byte

// Complete reports whether every required angle is present and non-empty.
func (p PhotoSet) Complete() bool {
	for _, label := range PhotoLabels {
		if len(p[label]) == 0 {
			return false
		}
	}
	return len(p) == len(PhotoLabels)
}

// FaceChangeStatus is the state of a re-enrollment request.
type FaceChangeStatus string

const (
	FaceChangePending  FaceChangeStatus = "Pending"
	FaceChangeApproved FaceChangeStatus = "Approved"
	FaceChangeDenied   FaceChangeStatus = "Denied"
)

package outline

import "github.com/mmcdole/posekit/internal/domain"

// KeyPointCount is the number of landmarks in a valid outline
const KeyPointCount = 33

// MinConfidence is the level a point must exceed to be drawn or scored
const MinConfidence float32 = 0.5

// Landmark indexes the canonical 33-point skeleton
type Landmark int

const (
	Nose Landmark = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex
)

// landmarkNames are the stable identifiers used in catalog files
var landmarkNames = [KeyPointCount]string{
	"nose",
	"left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear",
	"mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder",
	"left_elbow", "right_elbow",
	"left_wrist", "right_wrist",
	"left_pinky", "right_pinky",
	"left_index", "right_index",
	"left_thumb", "right_thumb",
	"left_hip", "right_hip",
	"left_knee", "right_knee",
	"left_ankle", "right_ankle",
	"left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

// String returns the snake_case landmark name
func (l Landmark) String() string {
	if l < 0 || int(l) >= KeyPointCount {
		return "unknown"
	}
	return landmarkNames[l]
}

// LandmarkByName resolves a snake_case name to its index
func LandmarkByName(name string) (Landmark, bool) {
	for i, n := range landmarkNames {
		if n == name {
			return Landmark(i), true
		}
	}
	return 0, false
}

// TypeOf maps a landmark index to its coarse body-part tag
func TypeOf(l Landmark) domain.PointType {
	switch {
	case l <= MouthRight:
		return domain.PointHead
	case l <= RightShoulder:
		return domain.PointShoulder
	case l <= RightElbow:
		return domain.PointElbow
	case l <= RightWrist:
		return domain.PointWrist
	case l <= RightThumb:
		return domain.PointHand
	case l <= RightHip:
		return domain.PointHip
	case l <= RightKnee:
		return domain.PointKnee
	case l <= RightAnkle:
		return domain.PointAnkle
	case l <= RightFootIndex:
		return domain.PointFoot
	default:
		return domain.PointContour
	}
}

// Bone connects two landmarks when an outline is rendered as an overlay
type Bone struct {
	From Landmark
	To   Landmark
}

// Bones is the skeleton drawn over the camera preview
var Bones = []Bone{
	// Head
	{LeftEar, LeftEye}, {LeftEye, Nose}, {Nose, RightEye}, {RightEye, RightEar},

	// Torso
	{LeftShoulder, RightShoulder}, {LeftShoulder, LeftHip},
	{RightShoulder, RightHip}, {LeftHip, RightHip},

	// Arms
	{LeftShoulder, LeftElbow}, {LeftElbow, LeftWrist},
	{RightShoulder, RightElbow}, {RightElbow, RightWrist},

	// Hands
	{LeftWrist, LeftThumb}, {LeftWrist, LeftIndex}, {LeftWrist, LeftPinky},
	{RightWrist, RightThumb}, {RightWrist, RightIndex}, {RightWrist, RightPinky},

	// Legs
	{LeftHip, LeftKnee}, {LeftKnee, LeftAnkle},
	{RightHip, RightKnee}, {RightKnee, RightAnkle},

	// Feet
	{LeftAnkle, LeftHeel}, {LeftAnkle, LeftFootIndex},
	{RightAnkle, RightHeel}, {RightAnkle, RightFootIndex},
}

// VisibleBones returns the bones whose endpoints both exceed MinConfidence.
// Outlines with fewer than KeyPointCount points have no visible bones.
func VisibleBones(points []domain.KeyPoint) []Bone {
	if len(points) < KeyPointCount {
		return nil
	}
	var visible []Bone
	for _, b := range Bones {
		if points[b.From].Confidence > MinConfidence && points[b.To].Confidence > MinConfidence {
			visible = append(visible, b)
		}
	}
	return visible
}

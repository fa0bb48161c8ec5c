package domain

import (
	"math"

	pgvector "github.com/pgvector/pgvector-go"
)

// RoleType is one of the seven collaboration archetypes a learner can
// exhibit. The set is closed and never extended at runtime.
type RoleType string

const (
	RoleLeader       RoleType = "LEADER"
	RolePlanner      RoleType = "PLANNER"
	RoleExpert       RoleType = "EXPERT"
	RoleCreative     RoleType = "CREATIVE"
	RoleCommunicator RoleType = "COMMUNICATOR"
	RoleTeamPlayer   RoleType = "TEAM_PLAYER"
	RoleChallenger   RoleType = "CHALLENGER"
)

// AllRoleTypes fixes the canonical ordering used for vector storage.
var AllRoleTypes = []RoleType{
	RoleLeader,
	RolePlanner,
	RoleExpert,
	RoleCreative,
	RoleCommunicator,
	RoleTeamPlayer,
	RoleChallenger,
}

// RoleVector maps every RoleType to a score in [0,1]. All seven keys are
// always present; NewRoleVector seeds them with zeros.
type RoleVector map[RoleType]float64

func NewRoleVector() RoleVector {
	v := make(RoleVector, len(AllRoleTypes))
	for _, role := range AllRoleTypes {
		v[role] = 0
	}
	return v
}

// Clone returns an independent copy with all seven keys present.
func (v RoleVector) Clone() RoleVector {
	out := NewRoleVector()
	for _, role := range AllRoleTypes {
		out[role] = v[role]
	}
	return out
}

// Clamp forces every score into [0,1].
func (v RoleVector) Clamp() {
	for _, role := range AllRoleTypes {
		v[role] = clamp01(v[role])
	}
}

// Dot returns the dot product over the seven roles.
func (v RoleVector) Dot(other RoleVector) float64 {
	var sum float64
	for _, role := range AllRoleTypes {
		sum += v[role] * other[role]
	}
	return sum
}

// Norm returns the Euclidean (L2) norm over the seven roles.
func (v RoleVector) Norm() float64 {
	var sum float64
	for _, role := range AllRoleTypes {
		sum += v[role] * v[role]
	}
	return math.Sqrt(sum)
}

// Complement returns 1 - score per role: what a group currently lacks.
func (v RoleVector) Complement() RoleVector {
	out := NewRoleVector()
	for _, role := range AllRoleTypes {
		out[role] = 1.0 - v[role]
	}
	return out
}

// IsZero reports whether every role scores exactly zero.
func (v RoleVector) IsZero() bool {
	for _, role := range AllRoleTypes {
		if v[role] != 0 {
			return false
		}
	}
	return true
}

// CosineSimilarity computes cosine similarity between two role vectors,
// clamped into [0,1]. Degenerate (zero-norm) vectors never match.
func CosineSimilarity(a, b RoleVector) float64 {
	normA := a.Norm()
	normB := b.Norm()
	if normA == 0 || normB == 0 {
		return 0
	}
	return clamp01(a.Dot(b) / (normA * normB))
}

// ToVector converts the role vector to its pgvector wire format using the
// AllRoleTypes ordering.
func (v RoleVector) ToVector() pgvector.Vector {
	data := make([]float32, len(AllRoleTypes))
	for i, role := range AllRoleTypes {
		data[i] = float32(v[role])
	}
	return pgvector.NewVector(data)
}

// RoleVectorFromVector rebuilds a RoleVector from its stored pgvector form.
// Short or empty slices yield zeros for the missing roles.
func RoleVectorFromVector(vec pgvector.Vector) RoleVector {
	out := NewRoleVector()
	data := vec.Slice()
	for i, role := range AllRoleTypes {
		if i < len(data) {
			out[role] = float64(data[i])
		}
	}
	return out
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Package platform defines the contracts the reset engine needs from the
// host LMS, together with default implementations that read the host's
// relational tables directly. The engine itself only ever sees these
// interfaces; tests substitute stubs.
package platform

import "context"

// Node is one entry in the host's containment hierarchy.
type Node struct {
	RefID int64
	Type  string
}

// CurriculumNode is one structured-curriculum link under a study programme.
// Container links hold further programme nodes; leaf links point at courses.
type CurriculumNode struct {
	RefID       int64
	Type        string
	IsContainer bool
}

// User is the host user record needed for notification rendering.
type User struct {
	ID        int64
	Login     string
	FirstName string
	LastName  string
	Email     string
}

// FullName returns the display name used for the [name] placeholder.
func (u User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Login
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Hierarchy exposes the host's generic object tree.
type Hierarchy interface {
	// InHierarchy reports whether the reference participates in the tree at all.
	InHierarchy(ctx context.Context, refID int64) (bool, error)
	// Children lists the direct children of a node.
	Children(ctx context.Context, refID int64) ([]Node, error)
	// ResolveReference maps an alias node (course reference) to its target.
	ResolveReference(ctx context.Context, refID int64) (Node, error)
}

// Curriculum exposes the structured links under a study programme node.
type Curriculum interface {
	Children(ctx context.Context, refID int64) ([]CurriculumNode, error)
}

// LearningProgress performs the actual per-object progress reset.
type LearningProgress interface {
	ResetForAllUsers(ctx context.Context, objectID int64) error
	ResetForUsers(ctx context.Context, objectID int64, userIDs []int64) error
	// BindAssessment attaches the hierarchy reference an assessment object
	// needs before its attempt data can be cleared.
	BindAssessment(ctx context.Context, objectID, refID int64) error
}

// Activity resolves the population of users with any recorded progress or
// activity on an object.
type Activity interface {
	UserIDsWithActivity(ctx context.Context, objectID int64) ([]int64, error)
}

// Rights exposes role membership.
type Rights interface {
	RolesOf(ctx context.Context, userID int64) ([]int64, error)
}

// ObjectLookup resolves references to objects and their metadata.
type ObjectLookup interface {
	ObjectID(ctx context.Context, refID int64) (int64, error)
	Type(ctx context.Context, objectID int64) (string, error)
	Title(ctx context.Context, objectID int64) (string, error)
}

// UserDirectory loads user records for notification rendering.
type UserDirectory interface {
	User(ctx context.Context, userID int64) (User, error)
}

// Mailer hands a message to the host's outbound mail path.
type Mailer interface {
	Enqueue(to, subject, body string) error
}

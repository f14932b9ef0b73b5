package model

import "fmt"

// ActivityType is the closed set of message types, per spec §3 and
// chatternet/src/model/message.rs::ActivityType.
type ActivityType string

const (
	Accept          ActivityType = "Accept"
	Add             ActivityType = "Add"
	Announce        ActivityType = "Announce"
	Arrive          ActivityType = "Arrive"
	Block           ActivityType = "Block"
	Create          ActivityType = "Create"
	Delete          ActivityType = "Delete"
	Dislike         ActivityType = "Dislike"
	Flag            ActivityType = "Flag"
	Follow          ActivityType = "Follow"
	Ignore          ActivityType = "Ignore"
	Invite          ActivityType = "Invite"
	Join            ActivityType = "Join"
	Leave           ActivityType = "Leave"
	Like            ActivityType = "Like"
	Listen          ActivityType = "Listen"
	Move            ActivityType = "Move"
	Offer           ActivityType = "Offer"
	Question        ActivityType = "Question"
	Reject          ActivityType = "Reject"
	Read            ActivityType = "Read"
	Remove          ActivityType = "Remove"
	TentativeReject ActivityType = "TentativeReject"
	TentativeAccept ActivityType = "TentativeAccept"
	Travel          ActivityType = "Travel"
	Undo            ActivityType = "Undo"
	Update          ActivityType = "Update"
	View            ActivityType = "View"
)

var validActivityTypes = map[ActivityType]bool{
	Accept: true, Add: true, Announce: true, Arrive: true, Block: true,
	Create: true, Delete: true, Dislike: true, Flag: true, Follow: true,
	Ignore: true, Invite: true, Join: true, Leave: true, Like: true,
	Listen: true, Move: true, Offer: true, Question: true, Reject: true,
	Read: true, Remove: true, TentativeReject: true, TentativeAccept: true,
	Travel: true, Undo: true, Update: true, View: true,
}

// Validate checks that t is one of the 28 defined activity types.
func (t ActivityType) Validate() error {
	if !validActivityTypes[t] {
		return fmt.Errorf("%w: unknown activity type %q", ErrMalformedDocument, t)
	}
	return nil
}

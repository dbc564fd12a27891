package domain

// ProfileRecord is the latest known display metadata for a user.
// Rev resolves concurrent updates: last writer by counter wins.
type ProfileRecord struct {
	DisplayName  string
	RealName     *string
	ShowRealName bool
	Rev          int64
}

// Supersedes reports whether r should replace stored. A nil stored record
// is always superseded; equal revisions are not.
func (r ProfileRecord) Supersedes(stored *ProfileRecord) bool {
	return stored == nil || r.Rev > stored.Rev
}

// ProfileSnapshot is a ProfileRecord tagged with its owner.
type ProfileSnapshot struct {
	UserID       UserID  `json:"user_id"`
	DisplayName  string  `json:"display_name"`
	RealName     *string `json:"real_name"`
	ShowRealName bool    `json:"show_real_name"`
	Rev          int64   `json:"rev"`
}

func (r ProfileRecord) Snapshot(uid UserID) ProfileSnapshot {
	return ProfileSnapshot{
		UserID:       uid,
		DisplayName:  r.DisplayName,
		RealName:     r.RealName,
		ShowRealName: r.ShowRealName,
		Rev:          r.Rev,
	}
}

func (s ProfileSnapshot) Record() ProfileRecord {
	return ProfileRecord{
		DisplayName:  s.DisplayName,
		RealName:     s.RealName,
		ShowRealName: s.ShowRealName,
		Rev:          s.Rev,
	}
}

package gallery

import "time"

// Snapshot is a saved copy of a user's albums, photo contents and tag types.
// Restore writes it back into the same Album and Photo values, so pointers
// held by callers stay valid.
type Snapshot struct {
	user     *User
	albums   []*Album
	states   map[*Album]albumState
	contents map[*Photo]photoState
	tagTypes TagTypes
}

type albumState struct {
	name     string
	photos   []*Photo
	modified time.Time
}

type photoState struct {
	caption string
	tags    []Tag
}

func (u *User) Snapshot() *Snapshot {
	s := &Snapshot{
		user:     u,
		albums:   u.Albums(),
		states:   make(map[*Album]albumState, len(u.albums)),
		contents: make(map[*Photo]photoState),
		tagTypes: u.tagTypes.Clone(),
	}
	for _, a := range u.albums {
		s.states[a] = albumState{name: a.name, photos: a.Photos(), modified: a.modified}
		for _, p := range a.photos {
			if _, ok := s.contents[p]; !ok {
				s.contents[p] = photoState{caption: p.caption, tags: p.Tags()}
			}
		}
	}
	return s
}

// Restore puts the user back into the snapshot's state.
func (s *Snapshot) Restore() {
	u := s.user
	u.albums = append([]*Album(nil), s.albums...)
	for a, st := range s.states {
		a.name = st.name
		a.photos = append([]*Photo(nil), st.photos...)
		a.modified = st.modified
	}
	for p, st := range s.contents {
		p.caption = st.caption
		p.tags = append([]Tag(nil), st.tags...)
	}
	for name := range u.tagTypes {
		delete(u.tagTypes, name)
	}
	for name, n := range s.tagTypes {
		u.tagTypes[name] = n
	}
}

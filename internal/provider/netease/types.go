package netease

// ArtistRef is the artist sub-object embedded in songs and albums.
type ArtistRef struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	PicURL        string `json:"picUrl,omitempty"`
	MusicBrainzID string `json:"musicBrainzId,omitempty"`
}

// Album is an album record as returned by search results, song sub-objects,
// and the album detail endpoint. Search results embed the credited artist
// under "artist"; some detail payloads use an "artists" array instead.
type Album struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	PicURL        string      `json:"picUrl,omitempty"`
	PublishTime   int64       `json:"publishTime,omitempty"` // unix milliseconds
	Size          int         `json:"size,omitempty"`
	Genre         string      `json:"genre,omitempty"`
	Description   string      `json:"description,omitempty"`
	MusicBrainzID string      `json:"musicBrainzId,omitempty"`
	Artist        *ArtistRef  `json:"artist,omitempty"`
	Artists       []ArtistRef `json:"artists,omitempty"`
}

// ArtistName returns the credited artist name, preferring the singular
// "artist" object over the first entry of the "artists" array.
func (a *Album) ArtistName() string {
	if a.Artist != nil && a.Artist.Name != "" {
		return a.Artist.Name
	}
	if len(a.Artists) > 0 {
		return a.Artists[0].Name
	}
	return ""
}

// Song is a track record. The search endpoint spells its sub-objects
// "artists"/"album" while the detail endpoint abbreviates them "ar"/"al";
// both spellings are accepted and normalized through the accessors.
type Song struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Duration    int64       `json:"duration,omitempty"` // milliseconds
	Genre       string      `json:"genre,omitempty"`
	Description string      `json:"description,omitempty"`
	Lyric       string      `json:"lyric,omitempty"`
	Artists     []ArtistRef `json:"artists,omitempty"`
	Ar          []ArtistRef `json:"ar,omitempty"`
	Album       *Album      `json:"album,omitempty"`
	Al          *Album      `json:"al,omitempty"`
}

// ArtistRefs returns the song's artist credits under either spelling.
func (s *Song) ArtistRefs() []ArtistRef {
	if len(s.Artists) > 0 {
		return s.Artists
	}
	return s.Ar
}

// ArtistName returns the first credited artist name, or "".
func (s *Song) ArtistName() string {
	refs := s.ArtistRefs()
	if len(refs) == 0 {
		return ""
	}
	return refs[0].Name
}

// AlbumRef returns the song's embedded album under either spelling, or nil.
func (s *Song) AlbumRef() *Album {
	if s.Album != nil {
		return s.Album
	}
	return s.Al
}

// Artist is an artist record from search results.
type Artist struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	PicURL        string `json:"picUrl,omitempty"`
	Genre         string `json:"genre,omitempty"`
	BriefDesc     string `json:"briefDesc,omitempty"`
	Desc          string `json:"desc,omitempty"`
	MusicBrainzID string `json:"musicBrainzId,omitempty"`
}

// ArtistDetail is the richer artist record from the detail endpoint.
type ArtistDetail struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Cover         string   `json:"cover,omitempty"`
	Avatar        string   `json:"avatar,omitempty"`
	TransNames    []string `json:"transNames,omitempty"`
	Alias         []string `json:"alias,omitempty"`
	Identities    []string `json:"identities,omitempty"`
	BriefDesc     string   `json:"briefDesc,omitempty"`
	AlbumSize     int      `json:"albumSize,omitempty"`
	MusicSize     int      `json:"musicSize,omitempty"`
	MVSize        int      `json:"mvSize,omitempty"`
	MusicBrainzID string   `json:"musicBrainzId,omitempty"`
}

// Wire envelopes.

type searchResponse struct {
	Code   int `json:"code"`
	Result struct {
		Songs   []Song   `json:"songs"`
		Albums  []Album  `json:"albums"`
		Artists []Artist `json:"artists"`
	} `json:"result"`
}

type albumDetailResponse struct {
	Code  int    `json:"code"`
	Album *Album `json:"album"`
}

type artistDetailResponse struct {
	Code int `json:"code"`
	Data struct {
		Artist *ArtistDetail `json:"artist"`
	} `json:"data"`
}

type songDetailResponse struct {
	Code  int    `json:"code"`
	Songs []Song `json:"songs"`
}

type lyricResponse struct {
	Code int `json:"code"`
	Lrc  struct {
		Lyric string `json:"lyric"`
	} `json:"lrc"`
}

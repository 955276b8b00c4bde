package subsonic

// Wire types for the Subsonic REST API (JSON flavor, f=json). Every reply
// is wrapped in a "subsonic-response" envelope carrying a status and, on
// failure, a structured error.

type envelope struct {
	Response response `json:"subsonic-response"`
}

type response struct {
	Status  string     `json:"status"`
	Version string     `json:"version"`
	Error   *respError `json:"error"`
	Artists *indexes   `json:"artists"`
	Artist  *artist    `json:"artist"`
	Album   *album     `json:"album"`
	Lyrics  *lyrics    `json:"lyrics"`
}

type respError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Subsonic error codes this client distinguishes.
const (
	codeWrongCredentials = 40
	codeNotAuthorized    = 50
	codeNotFound         = 70
)

type indexes struct {
	Index []index `json:"index"`
}

type index struct {
	Name   string   `json:"name"`
	Artist []artist `json:"artist"`
}

type artist struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	CoverArt   string  `json:"coverArt"`
	AlbumCount int     `json:"albumCount"`
	Album      []album `json:"album"`
}

type album struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Artist    string `json:"artist"`
	ArtistID  string `json:"artistId"`
	CoverArt  string `json:"coverArt"`
	SongCount int    `json:"songCount"`
	Duration  int    `json:"duration"`
	Year      int    `json:"year"`
	Song      []song `json:"song"`
}

type song struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Album       string `json:"album"`
	Artist      string `json:"artist"`
	Track       int    `json:"track"`
	Duration    int    `json:"duration"`
	CoverArt    string `json:"coverArt"`
	ContentType string `json:"contentType"`
	BitRate     int    `json:"bitRate"`
}

type lyrics struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Value  string `json:"value"`
}

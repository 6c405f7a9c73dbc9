package kugou

// SongSearchResponse is the body of the song search endpoint
type SongSearchResponse struct {
	Status  int `json:"status"`
	ErrCode int `json:"errcode"`
	Data    struct {
		Total int        `json:"total"`
		Info  []SongInfo `json:"info"`
	} `json:"data"`
}

// SongInfo is one song search hit. Its hash keys the lyrics search.
type SongInfo struct {
	Hash       string `json:"hash"`
	SongName   string `json:"songname"`
	SingerName string `json:"singername"`
	AlbumName  string `json:"album_name"`
	Duration   int    `json:"duration"` // seconds
}

// LyricsSearchResponse is the body of the lyrics search endpoint
type LyricsSearchResponse struct {
	Status     int               `json:"status"`
	ErrCode    int               `json:"errcode"`
	ErrMsg     string            `json:"errmsg"`
	Candidates []LyricsCandidate `json:"candidates"`
}

// LyricsCandidate is a downloadable lyrics file for a song hash
type LyricsCandidate struct {
	ID          string `json:"id"`
	AccessKey   string `json:"accesskey"`
	ProductFrom string `json:"product_from"`
	Singer      string `json:"singer"`
	Song        string `json:"song"`
	Duration    int    `json:"duration"` // milliseconds
	KRCType     int    `json:"krctype"`  // 1 = synced
	Score       int    `json:"score"`
}

// DownloadResponse is the body of the lyrics download endpoint
type DownloadResponse struct {
	Status    int    `json:"status"`
	Info      string `json:"info"`
	ErrorCode int    `json:"error_code"`
	Charset   string `json:"charset"`
	Content   string `json:"content"` // base64 LRC
}

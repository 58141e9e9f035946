package crossref

// Work is the subset of a Crossref work record used for linkage.
type Work struct {
	DOI             string     `json:"DOI"`
	Type            string     `json:"type"`
	Title           []string   `json:"title"`
	ContainerTitle  []string   `json:"container-title"`
	Author          []Author   `json:"author"`
	PublishedOnline *DateParts `json:"published-online"`
	PublishedPrint  *DateParts `json:"published-print"`
}

// Author is a contributor as Crossref reports it.
type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

// DateParts holds a partial date such as [[2020, 3, 15]] or [[2020]].
// Crossref occasionally sends [[null]], hence the pointer elements.
type DateParts struct {
	DateParts [][]*int `json:"date-parts"`
}

// workResponse is the envelope for GET /works/{doi}.
type workResponse struct {
	Status  string `json:"status"`
	Message *Work  `json:"message"`
}

// searchResponse is the envelope for GET /works?query.title=.
type searchResponse struct {
	Status  string `json:"status"`
	Message struct {
		TotalResults int    `json:"total-results"`
		Items        []Work `json:"items"`
	} `json:"message"`
}

package scanner

// WorkItem is a single candidate to probe beneath a directory.
type WorkItem struct {
	Directory string // directory URL, always ending in "/"
	Candidate string // catalog entry relative to Directory
}

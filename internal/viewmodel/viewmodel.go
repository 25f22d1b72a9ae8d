package viewmodel

// Tab is one subject in the tab bar.
type Tab struct {
	Subject string
	Title   string
	Active  bool
}

// Token is an unplaced label in the pool.
type Token struct {
	Value string
}

// Target is a drop target on the board.
type Target struct {
	Key         string
	Label       string
	Status      string
	Placed      string
	EmptyPrompt string
}

// Board holds data for the pool and targets fragment.
type Board struct {
	Subject  string
	Pool     []Token
	Targets  []Target
	Complete bool
}

// Status holds data for the progress, timer and best-time fragment.
type Status struct {
	Subject  string
	Progress string
	Correct  int
	Total    int
	Timer    string
	Running  bool
	Best     string
	HasBest  bool
}

// Toast holds data for the notification fragment.
type Toast struct {
	Subject string
	Message string
}

// Page holds data for the full game page.
type Page struct {
	Title   string
	Lang    string
	Subject string
	Tabs    []Tab
	Board   Board
	Status  Status
	Toast   Toast
}

package tui

import "github.com/matheuskafuri/quill/internal/post"

type postsLoadedMsg struct {
	posts []post.Post
}

type loadErrMsg struct {
	err error
}

type importDoneMsg struct {
	imported int
	failed   int
	err      error
}

// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package jcodec

// A rewindState records everything needed to restore a Scanner to an
// earlier point in its input.
type rewindState struct {
	ch  rune
	pos Position
	nl  rune

	tok  Token
	kind LiteralKind
	text string
	tpos Position
	hex  bool

	cursor int
}

// Bookmark records the current state of s on a stack of bookmarks. While any
// bookmark is active, every character consumed is retained so that it can
// be delivered again after a call to Rewind.
//
// Bookmarks nest: each call to Bookmark must be balanced by exactly one call
// to either Rewind or DiscardBookmark.
func (s *Scanner) Bookmark() {
	s.marks = append(s.marks, rewindState{
		ch:     s.ch,
		pos:    s.pos,
		nl:     s.nl,
		tok:    s.tok,
		kind:   s.kind,
		text:   s.text,
		tpos:   s.tpos,
		hex:    s.hex,
		cursor: s.cursor,
	})
}

// DiscardBookmark removes the most recent bookmark without changing the
// current state of s. It panics if there is no active bookmark.
func (s *Scanner) DiscardBookmark() {
	s.popMark()
	s.release()
}

// Rewind restores s to the state recorded by the most recent bookmark, and
// removes that bookmark. Characters consumed since the bookmark are delivered
// again, with the same positions, before any further input is read. Rewind
// panics if there is no active bookmark.
func (s *Scanner) Rewind() {
	m := s.popMark()
	s.ch, s.pos, s.nl = m.ch, m.pos, m.nl
	s.tok, s.kind, s.text, s.tpos, s.hex = m.tok, m.kind, m.text, m.tpos, m.hex
	s.cursor = m.cursor
	s.release()
}

// Bookmarks reports the number of active bookmarks.
func (s *Scanner) Bookmarks() int { return len(s.marks) }

func (s *Scanner) popMark() rewindState {
	n := len(s.marks)
	if n == 0 {
		panic("jcodec: no active bookmark")
	}
	m := s.marks[n-1]
	s.marks = s.marks[:n-1]
	return m
}

// release drops the part of the replay buffer that can no longer be
// delivered again. Once no bookmark is active, only the characters not yet
// re-delivered are kept; read clears the buffer when they are exhausted.
func (s *Scanner) release() {
	if len(s.marks) != 0 || s.cursor == 0 {
		return
	}
	n := copy(s.replay, s.replay[s.cursor:])
	s.replay = s.replay[:n]
	s.cursor = 0
}

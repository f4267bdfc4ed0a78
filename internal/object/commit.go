package object

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/winnyboy5/mediagit-core-sub002/internal/oid"
)

// Commit is a snapshot pointer plus parentage and metadata. An initial
// commit has zero parents; a merge commit has two or more.
type Commit struct {
	Tree      oid.OID
	Parents   []oid.OID
	Author    Signature
	Committer Signature
	Message   string
}

// IsInitial reports whether c has no parents.
func (c *Commit) IsInitial() bool { return len(c.Parents) == 0 }

// IsMerge reports whether c has two or more parents.
func (c *Commit) IsMerge() bool { return len(c.Parents) >= 2 }

// Summary returns the first line of the commit message.
func (c *Commit) Summary() string {
	if i := strings.IndexAny(c.Message, "\r\n"); i != -1 {
		return c.Message[:i]
	}
	return c.Message
}

// Encode writes the commit's canonical serialized form, matching the
// teacher's line-oriented layout: tree, then each parent, then author/
// committer lines, a blank line, then the message verbatim.
func (c *Commit) Encode(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "tree %s\n", c.Tree); err != nil {
		return err
	}
	for _, p := range c.Parents {
		if _, err := fmt.Fprintf(w, "parent %s\n", p); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "author %s\ncommitter %s\n\n%s", c.Author, c.Committer, c.Message); err != nil {
		return err
	}
	return nil
}

// Bytes returns the commit's canonical serialized form.
func (c *Commit) Bytes() []byte {
	var buf bytes.Buffer
	_ = c.Encode(&buf)
	return buf.Bytes()
}

// Decode parses a commit previously written by Encode.
func (c *Commit) Decode(r io.Reader) error {
	br := bufio.NewReader(r)
	var msg strings.Builder
	headersDone := false
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return readErr
		}
		text := strings.TrimSuffix(line, "\n")
		if !headersDone {
			if text == "" {
				headersDone = true
				if readErr == io.EOF {
					break
				}
				continue
			}
			fields := strings.SplitN(text, " ", 2)
			if len(fields) != 2 {
				if readErr == io.EOF {
					break
				}
				continue
			}
			switch fields[0] {
			case "tree":
				id, err := oid.Parse(fields[1])
				if err != nil {
					return fmt.Errorf("object: bad tree oid: %w", err)
				}
				c.Tree = id
			case "parent":
				id, err := oid.Parse(fields[1])
				if err != nil {
					return fmt.Errorf("object: bad parent oid: %w", err)
				}
				c.Parents = append(c.Parents, id)
			case "author":
				c.Author.Decode([]byte(fields[1]))
			case "committer":
				c.Committer.Decode([]byte(fields[1]))
			}
		} else {
			msg.WriteString(line)
		}
		if readErr == io.EOF {
			break
		}
	}
	c.Message = msg.String()
	return nil
}

// SPDX-License-Identifier: Apache-2.0

package samizdat

import (
	"crypto/md5" //nolint:gosec // identity hash, not a security boundary
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// DBInfoVersion is the version field dbinfo comments carry. Bumping it is a
// breaking change to the on-disk format (spec.md §6.2).
const DBInfoVersion = 1

// DBInfo is the JSON signature stored in a database object's COMMENT,
// declaring this system's ownership and logical version. Its shape is
// exactly spec.md §6.2: objects whose comment doesn't parse into this
// (wrapped in the "dbsamizdat" key) are not owned and never touched.
type DBInfo struct {
	Version        int    `json:"version"`
	Created        int64  `json:"created"`
	DefinitionHash string `json:"definition_hash"`
}

// DBInfoComment is the envelope actually stored in COMMENT: {"dbsamizdat": {...}}.
type DBInfoComment struct {
	DBSamizdat DBInfo `json:"dbsamizdat"`
}

// DefinitionHash computes the MD5 identity hash described in spec.md §3:
// for non-functions, md5(sql_template | db_object_identity); for functions,
// md5(sql_template | db_object_identity | creation_identity).
func (s *Samizdat) DefinitionHash() (string, error) {
	if s.Ghost {
		return "", ErrGhostSamizdat{FQN: s.FQN()}
	}
	tmpl, err := s.SQLTemplate.Resolve()
	if err != nil {
		return "", fmt.Errorf("resolving template for %s: %w", s.FQN(), err)
	}

	parts := []string{tmpl, s.FQN().String()}
	if s.Kind == KindFunction {
		parts = append(parts, s.creationIdentity())
	}

	sum := md5.Sum([]byte(strings.Join(parts, "|"))) //nolint:gosec
	return hex.EncodeToString(sum[:]), nil
}

// creationIdentity renders the richer, creation-time argument list
// (including defaults and OUT parameters) used for CREATE FUNCTION, as
// distinct from FunctionArgumentsSignature used for identity (spec.md §4.1).
func (s *Samizdat) creationIdentity() string {
	args := make([]string, len(s.FunctionArguments))
	for i, a := range s.FunctionArguments {
		arg := a.Name + " " + a.Type
		if a.Out {
			arg = "OUT " + arg
		}
		if a.Default.IsSpecified() && !a.Default.IsNull() {
			v, _ := a.Default.Get()
			arg += " DEFAULT " + v
		}
		args[i] = arg
	}
	return fmt.Sprintf("%s.%s(%s)", s.FQN().Schema, s.functionObjectName(), strings.Join(args, ", "))
}

func (s *Samizdat) functionObjectName() string {
	if s.FunctionName != "" {
		return s.FunctionName
	}
	return s.Name
}

// Sign computes a DBInfo signature for the samizdat at the given unix
// timestamp. Signing a function whose FunctionArgumentsSignature does not
// match what PostgreSQL actually assigned the object (no defaults, types
// normalized) fails by construction upstream, in the executor's signature
// recovery path (spec.md §4.6) — Sign itself only ever computes the hash
// from the declared identity.
func (s *Samizdat) Sign(createdAt int64) (DBInfoComment, error) {
	hash, err := s.DefinitionHash()
	if err != nil {
		return DBInfoComment{}, err
	}
	return DBInfoComment{DBSamizdat: DBInfo{
		Version:        DBInfoVersion,
		Created:        createdAt,
		DefinitionHash: hash,
	}}, nil
}

// MarshalComment renders the dbinfo envelope as the exact JSON text stored
// in COMMENT.
func (c DBInfoComment) MarshalComment() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseDBInfoComment parses a COMMENT's text as a dbinfo envelope. Returns
// ok=false (no error) when the text simply isn't dbinfo JSON — that is the
// normal "not an owned object" case, not a failure.
func ParseDBInfoComment(comment string) (c DBInfoComment, ok bool) {
	if comment == "" {
		return DBInfoComment{}, false
	}
	if err := json.Unmarshal([]byte(comment), &c); err != nil {
		return DBInfoComment{}, false
	}
	if c.DBSamizdat.Version == 0 || c.DBSamizdat.DefinitionHash == "" {
		return DBInfoComment{}, false
	}
	return c, true
}

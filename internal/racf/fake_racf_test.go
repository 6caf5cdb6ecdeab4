package racf

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// fakeUser is a user profile held by fakeRACF.
type fakeUser struct {
	name       string
	fullName   string
	owner      string
	dfltgrp    string
	attributes []string
	revoked    bool
	expired    bool
	groups     []string
	owners     []string
	segments   map[string]map[string]string
}

// fakeGroup is a group profile held by fakeRACF.
type fakeGroup struct {
	name     string
	supgroup string
	owner    string
	data     string
	termuacc bool
	segments map[string]map[string]string
}

// fakeRACF implements Client by interpreting commands against an in-memory
// database and printing listings in host format.
type fakeRACF struct {
	mu           sync.Mutex
	users        map[string]*fakeUser
	groups       map[string]*fakeGroup
	operationLog []string
	sentRefs     [][]byte
	failures     map[string]error
}

func newFakeRACF() *fakeRACF {
	f := &fakeRACF{
		users:    make(map[string]*fakeUser),
		groups:   make(map[string]*fakeGroup),
		failures: make(map[string]error),
	}
	f.addGroup("SYS1", "", "IBMUSER")
	return f
}

func (f *fakeRACF) addGroup(name, supgroup, owner string) *fakeGroup {
	g := &fakeGroup{name: name, supgroup: supgroup, owner: owner, segments: map[string]map[string]string{}}
	f.groups[name] = g
	return g
}

func (f *fakeRACF) addUser(name, dfltgrp string, groups ...string) *fakeUser {
	u := &fakeUser{
		name:     name,
		fullName: name + " USER",
		owner:    "IBMUSER",
		dfltgrp:  dfltgrp,
		segments: map[string]map[string]string{},
	}
	for _, g := range append([]string{dfltgrp}, groups...) {
		if _, ok := f.groups[g]; !ok {
			f.addGroup(g, "SYS1", "IBMUSER")
		}
		u.groups = append(u.groups, g)
		u.owners = append(u.owners, "IBMUSER")
	}
	f.users[name] = u
	return u
}

// failOn makes every command with verb fail with err.
func (f *fakeRACF) failOn(verb string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[verb] = err
}

// log returns the executed commands.
func (f *fakeRACF) log() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.operationLog))
	copy(out, f.operationLog)
	return out
}

// mutations returns the executed commands other than listings.
func (f *fakeRACF) mutations() []string {
	var out []string
	for _, c := range f.log() {
		verb, _, _ := strings.Cut(c, " ")
		if verb != "LISTUSER" && verb != "LISTGRP" && verb != "SEARCH" {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeRACF) Connect(context.Context) error { return nil }
func (f *fakeRACF) Close() error                  { return nil }
func (f *fakeRACF) Ping(context.Context) error    { return nil }
func (f *fakeRACF) Stats() PoolStats              { return PoolStats{} }

func (f *fakeRACF) Execute(ctx context.Context, cmd []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	text := string(cmd)
	f.sentRefs = append(f.sentRefs, cmd)
	f.operationLog = append(f.operationLog, text)

	verb, rest, _ := strings.Cut(text, " ")
	if err, ok := f.failures[verb]; ok {
		return "", err
	}
	target, operands, _ := strings.Cut(rest, " ")
	ops := parseOperands(operands)

	switch verb {
	case "LISTUSER":
		u, ok := f.users[target]
		if !ok {
			return "", NewEmbeddedCommandError(verb, "ICH30001I UNABLE TO LOCATE USER ENTRY "+target)
		}
		return f.listUser(u, operands), nil
	case "ADDUSER":
		if _, ok := f.users[target]; ok {
			return "", NewEmbeddedCommandError(verb, "ICH01001I USER "+target+" ALREADY DEFINED")
		}
		dfltgrp := valueOr(ops["DFLTGRP"], "SYS1")
		u := f.addUser(target, dfltgrp)
		u.fullName = valueOr(Unquote(ops["NAME"]), u.fullName)
		u.owner = valueOr(ops["OWNER"], u.owner)
		u.owners[0] = u.owner
		f.applyUser(u, ops)
		_, u.expired = ops["PASSWORD"]
		return "", nil
	case "ALTUSER":
		u, ok := f.users[target]
		if !ok {
			return "", NewEmbeddedCommandError(verb, "ICH21001I INVALID USERID, "+target)
		}
		if v, ok := ops["NAME"]; ok {
			u.fullName = Unquote(v)
		}
		u.owner = valueOr(ops["OWNER"], u.owner)
		u.dfltgrp = valueOr(ops["DFLTGRP"], u.dfltgrp)
		f.applyUser(u, ops)
		return "", nil
	case "DELUSER":
		if _, ok := f.users[target]; !ok {
			return "", NewEmbeddedCommandError(verb, "ICH01004I INVALID USERID, "+target)
		}
		delete(f.users, target)
		return "", nil
	case "CONNECT":
		u, ok := f.users[target]
		if !ok {
			return "", NewEmbeddedCommandError(verb, "ICH02004I INVALID USERID, "+target)
		}
		g := ops["GROUP"]
		if _, ok := f.groups[g]; !ok {
			return "", NewEmbeddedCommandError(verb, "ICH02003I INVALID GROUP, "+g)
		}
		u.groups = append(u.groups, g)
		u.owners = append(u.owners, valueOr(ops["OWNER"], "IBMUSER"))
		return "", nil
	case "REMOVE":
		u, ok := f.users[target]
		if !ok {
			return "", NewEmbeddedCommandError(verb, "ICH03004I INVALID USERID, "+target)
		}
		for i, g := range u.groups {
			if g == ops["GROUP"] {
				u.groups = append(u.groups[:i], u.groups[i+1:]...)
				u.owners = append(u.owners[:i], u.owners[i+1:]...)
				return "", nil
			}
		}
		return "", NewEmbeddedCommandError(verb, "IKJ56702I USER NOT CONNECTED TO GROUP")
	case "LISTGRP":
		g, ok := f.groups[target]
		if !ok {
			return "", NewEmbeddedCommandError(verb, "ICH51002I NAME NOT FOUND IN RACF DATA SET")
		}
		return f.listGroup(g, operands), nil
	case "ADDGROUP":
		if _, ok := f.groups[target]; ok {
			return "", NewEmbeddedCommandError(verb, "ICH00101I GROUP "+target+" ALREADY DEFINED")
		}
		g := f.addGroup(target, valueOr(ops["SUPGROUP"], "SYS1"), valueOr(ops["OWNER"], "IBMUSER"))
		f.applyGroup(g, ops)
		return "", nil
	case "ALTGROUP":
		g, ok := f.groups[target]
		if !ok {
			return "", NewEmbeddedCommandError(verb, "ICH11005I INVALID GROUP, "+target)
		}
		g.supgroup = valueOr(ops["SUPGROUP"], g.supgroup)
		g.owner = valueOr(ops["OWNER"], g.owner)
		f.applyGroup(g, ops)
		return "", nil
	case "DELGROUP":
		if _, ok := f.groups[target]; !ok {
			return "", NewEmbeddedCommandError(verb, "ICH12001I INVALID GROUP, "+target)
		}
		delete(f.groups, target)
		return "", nil
	case "SEARCH":
		return f.search(text)
	case "DEFINE":
		return "IDC0001I FUNCTION COMPLETED, HIGHEST CONDITION CODE WAS 0", nil
	}
	return "", NewEmbeddedCommandError(verb, "IKJ56500I COMMAND "+verb+" NOT FOUND")
}

func (f *fakeRACF) applyUser(u *fakeUser, ops map[string]string) {
	for kw, v := range ops {
		switch {
		case kw == "REVOKE":
			u.revoked = true
		case kw == "RESUME":
			u.revoked = false
		case kw == "NOEXPIRED":
			u.expired = false
		case kw == "EXPIRED":
			u.expired = true
		case kw == "SPECIAL" || kw == "OPERATIONS" || kw == "AUDITOR":
			u.attributes = appendUnique(u.attributes, kw)
		case kw == "NOSPECIAL" || kw == "NOOPERATIONS" || kw == "NOAUDITOR":
			u.attributes = without(u.attributes, strings.TrimPrefix(kw, "NO"))
		case kw == "NOTSO" || kw == "NOOMVS" || kw == "NOCICS":
			delete(u.segments, strings.TrimPrefix(kw, "NO"))
		case kw == "TSO" || kw == "OMVS" || kw == "CICS":
			applySegment(u.segments, kw, v)
		}
	}
}

func (f *fakeRACF) applyGroup(g *fakeGroup, ops map[string]string) {
	for kw, v := range ops {
		switch kw {
		case "DATA":
			g.data = Unquote(v)
		case "NODATA":
			g.data = ""
		case "TERMUACC":
			g.termuacc = true
		case "NOTERMUACC":
			g.termuacc = false
		case "NOOMVS":
			delete(g.segments, "OMVS")
		case "OMVS":
			applySegment(g.segments, kw, v)
		}
	}
}

func applySegment(segments map[string]map[string]string, seg, inner string) {
	fields, ok := segments[seg]
	if !ok {
		fields = make(map[string]string)
		segments[seg] = fields
	}
	for k, v := range parseOperands(inner) {
		if strings.HasPrefix(k, "NO") {
			delete(fields, strings.TrimPrefix(k, "NO"))
			continue
		}
		fields[k] = Unquote(v)
	}
}

func (f *fakeRACF) listUser(u *fakeUser, operands string) string {
	var sb strings.Builder
	ops := parseOperands(operands)

	if _, noBase := ops["NORACF"]; !noBase {
		attrs := append([]string{}, u.attributes...)
		if u.revoked {
			attrs = append(attrs, "REVOKED")
		}
		passdate := "23.045"
		if u.expired {
			passdate = "00.000"
		}
		fmt.Fprintf(&sb, "USER=%s  NAME=%s  OWNER=%s  CREATED=05.123\n", u.name, valueOr(u.fullName, "UNKNOWN"), u.owner)
		fmt.Fprintf(&sb, " DEFAULT-GROUP=%s  PASSDATE=%s PASS-INTERVAL= 90 PHRASEDATE=N/A\n", u.dfltgrp, passdate)
		fmt.Fprintf(&sb, " ATTRIBUTES=%s\n", valueOr(strings.Join(attrs, " "), "NONE"))
		sb.WriteString(" REVOKE DATE=NONE   RESUME DATE=NONE\n")
		sb.WriteString(" LAST-ACCESS=UNKNOWN\n")
		sb.WriteString(" CLASS AUTHORIZATIONS=NONE\n")
		sb.WriteString(" NO-INSTALLATION-DATA\n")
		sb.WriteString(" NO-MODEL-NAME\n")
		sb.WriteString(" LOGON ALLOWED   (DAYS)          (TIME)\n")
		sb.WriteString(" ---------------------------------------------\n")
		sb.WriteString(" ANYDAY                          ANYTIME\n")
		for i, g := range u.groups {
			fmt.Fprintf(&sb, "  GROUP=%-8s  AUTH=USE      CONNECT-OWNER=%-8s  CONNECT-DATE=05.123\n", g, u.owners[i])
			sb.WriteString("    CONNECTS=    00  UACC=NONE     LAST-CONNECT=UNKNOWN\n")
			sb.WriteString("    CONNECT ATTRIBUTES=NONE\n")
			sb.WriteString("    REVOKE DATE=NONE   RESUME DATE=NONE\n")
		}
		sb.WriteString("SECURITY-LEVEL=NONE SPECIFIED\n")
		sb.WriteString("CATEGORY-AUTHORIZATION\n NONE SPECIFIED\n")
		sb.WriteString("SECURITY-LABEL=NONE SPECIFIED\n")
	}

	writeSegments(&sb, u.segments, ops, "TSO", "OMVS", "CICS")
	return strings.TrimRight(sb.String(), "\n")
}

func (f *fakeRACF) listGroup(g *fakeGroup, operands string) string {
	var sb strings.Builder
	ops := parseOperands(operands)

	fmt.Fprintf(&sb, "INFORMATION FOR GROUP %s\n", g.name)
	fmt.Fprintf(&sb, "    SUPERIOR GROUP=%-8s  OWNER=%-8s  CREATED=99.001\n", valueOr(g.supgroup, "NONE"), g.owner)
	if g.data != "" {
		fmt.Fprintf(&sb, "    INSTALLATION DATA=%s\n", g.data)
	} else {
		sb.WriteString("    NO INSTALLATION DATA\n")
	}
	sb.WriteString("    NO MODEL DATA SET\n")
	if g.termuacc {
		sb.WriteString("    TERMUACC\n")
	} else {
		sb.WriteString("    NOTERMUACC\n")
	}

	var subgroups []string
	for _, other := range f.groups {
		if other.supgroup == g.name {
			subgroups = append(subgroups, other.name)
		}
	}
	sort.Strings(subgroups)
	if len(subgroups) > 0 {
		fmt.Fprintf(&sb, "    SUBGROUP(S)= %s\n", strings.Join(subgroups, "     "))
	} else {
		sb.WriteString("    NO SUBGROUPS\n")
	}

	var members []string
	for _, u := range f.users {
		for _, c := range u.groups {
			if c == g.name {
				members = append(members, u.name)
			}
		}
	}
	sort.Strings(members)
	if len(members) > 0 {
		sb.WriteString("    USER(S)=      ACCESS=      ACCESS COUNT=      UNIVERSAL ACCESS=\n")
		for _, m := range members {
			fmt.Fprintf(&sb, "      %-8s     USE            000000               NONE\n", m)
			sb.WriteString("         CONNECT ATTRIBUTES=NONE\n")
			sb.WriteString("         REVOKE DATE=NONE                  RESUME DATE=NONE\n")
		}
	} else {
		sb.WriteString("    NO USERS\n")
	}

	writeSegments(&sb, g.segments, ops, "OMVS")
	return strings.TrimRight(sb.String(), "\n")
}

// writeSegments prints each requested segment in host order.
func writeSegments(sb *strings.Builder, segments map[string]map[string]string, ops map[string]string, order ...string) {
	for _, seg := range order {
		if _, requested := ops[seg]; !requested {
			continue
		}
		fields, ok := segments[seg]
		if !ok {
			fmt.Fprintf(sb, "\nNO %s INFORMATION\n", seg)
			continue
		}
		fmt.Fprintf(sb, "\n%s INFORMATION\n%s\n", seg, strings.Repeat("-", len(seg)+12))
		names := make([]string, 0, len(fields))
		for k := range fields {
			names = append(names, k)
		}
		sort.Strings(names)
		indent := ""
		if seg == "TSO" {
			indent = " "
		}
		for _, k := range names {
			fmt.Fprintf(sb, "%s%s= %s\n", indent, k, fields[k])
		}
	}
}

func (f *fakeRACF) search(text string) (string, error) {
	ops := parseOperands(strings.TrimPrefix(text, "SEARCH "))
	mask := Unquote(ops["MASK"])

	var names []string
	switch ops["CLASS"] {
	case "USER":
		for n := range f.users {
			names = append(names, n)
		}
	case "GROUP":
		for n := range f.groups {
			names = append(names, n)
		}
	}
	var matched []string
	for _, n := range names {
		if strings.HasPrefix(n, mask) {
			matched = append(matched, n)
		}
	}
	if len(matched) == 0 {
		return "", NewEmbeddedCommandError("SEARCH", "ICH31005I NO ENTRIES MEET SEARCH CRITERIA")
	}
	sort.Strings(matched)
	return strings.Join(matched, "\n"), nil
}

// parseOperands splits "KW(value) FLAG KW2('x y')" into keyword/value
// pairs. Values keep their quotes.
func parseOperands(s string) map[string]string {
	out := make(map[string]string)
	i := 0
	for i < len(s) {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		start := i
		for i < len(s) && s[i] != ' ' && s[i] != '(' {
			i++
		}
		kw := s[start:i]
		if i >= len(s) || s[i] != '(' {
			if kw != "" {
				out[kw] = ""
			}
			continue
		}

		depth, inQuote, j := 0, false, i
		for ; j < len(s); j++ {
			switch c := s[j]; {
			case c == '\'':
				inQuote = !inQuote
			case inQuote:
			case c == '(':
				depth++
			case c == ')':
				depth--
			}
			if depth == 0 {
				break
			}
		}
		if j >= len(s) {
			j = len(s) - 1
		}
		out[kw] = s[i+1 : j]
		i = j + 1
	}
	return out
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func appendUnique(items []string, item string) []string {
	for _, existing := range items {
		if existing == item {
			return items
		}
	}
	return append(items, item)
}

func without(items []string, item string) []string {
	var out []string
	for _, existing := range items {
		if existing != item {
			out = append(out, existing)
		}
	}
	return out
}

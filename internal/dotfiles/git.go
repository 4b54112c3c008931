package dotfiles

import (
	"fmt"
	"strings"

	"loadstar/internal/wizard"
)

// WorkGitConfigPath holds the work identity, relative to home.
const WorkGitConfigPath = ".gitconfig-work"

// LocalGitConfigPath is included last by the generated config. Values only
// known at install time (signing key, URL rewrites) are written there.
const LocalGitConfigPath = ".gitconfig.local"

type gitSection struct {
	name string
	keys [][2]string
}

func (s *gitSection) set(key, value string) {
	s.keys = append(s.keys, [2]string{key, value})
}

// GitConfig renders ~/.gitconfig.
func GitConfig(snap wizard.Snapshot) string {
	id := snap.Identity
	var sections []*gitSection
	section := func(name string) *gitSection {
		s := &gitSection{name: name}
		sections = append(sections, s)
		return s
	}

	user := section("user")
	user.set("name", id.Name)
	if id.Email != "" {
		user.set("email", id.Email)
	} else if id.Work && id.WorkEmail != "" {
		user.set("email", id.WorkEmail)
	}
	if id.GitHubUser != "" {
		section("github").set("user", id.GitHubUser)
	}

	section("init").set("defaultBranch", "main")
	section("push").set("autoSetupRemote", "true")
	section("pull").set("rebase", "true")
	section("fetch").set("prune", "true")
	section("rebase").set("autoStash", "true")

	core := section("core")
	if editor := editorCommand(snap.Shell.Editor); editor != "" {
		core.set("editor", editor)
	}
	if snap.Has("delta") {
		core.set("pager", "delta")
		section("interactive").set("diffFilter", "delta --color-only")
		delta := section("delta")
		delta.set("navigate", "true")
		delta.set("line-numbers", "true")
		section("merge").set("conflictStyle", "zdiff3")
	}
	if snap.Has("lazygit") {
		section("alias").set("lg", "!lazygit")
	}

	if snap.Identity.SplitProfile() {
		section(fmt.Sprintf("includeIf \"gitdir:%s\"", id.WorkDir)).set("path", "~/"+WorkGitConfigPath)
	}
	section("include").set("path", "~/"+LocalGitConfigPath)

	var b strings.Builder
	b.WriteString(header)
	for _, s := range sections {
		if len(s.keys) == 0 {
			continue
		}
		fmt.Fprintf(&b, "[%s]\n", s.name)
		for _, kv := range s.keys {
			fmt.Fprintf(&b, "\t%s = %s\n", kv[0], gitValue(kv[1]))
		}
	}
	return b.String()
}

// WorkGitConfig renders the file included for repositories under WorkDir.
func WorkGitConfig(id wizard.Identity) string {
	return header + "[user]\n\temail = " + gitValue(id.WorkEmail) + "\n"
}

// gitValue quotes a value when git would otherwise misread it.
func gitValue(v string) string {
	if v == "" || strings.ContainsAny(v, "#;\"\\") || strings.TrimSpace(v) != v {
		v = strings.ReplaceAll(v, `\`, `\\`)
		v = strings.ReplaceAll(v, `"`, `\"`)
		return `"` + v + `"`
	}
	return v
}

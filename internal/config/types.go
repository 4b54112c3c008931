// Package config reads the two inputs of a headless run: the answers file
// that stands in for the interactive wizard, and the environment settings.
package config

// Answers is the YAML form of a finished wizard. Sections that are left out
// keep the session defaults.
type Answers struct {
	Identity IdentityAnswers `yaml:"identity"`
	// Shell replaces every shell choice when present.
	Shell *ShellAnswers `yaml:"shell,omitempty"`
	// Preset, if set, replaces the pre-selected essentials before Add and Remove apply.
	Preset string      `yaml:"preset,omitempty"`
	Add    []string    `yaml:"add,omitempty"`
	Remove []string    `yaml:"remove,omitempty"`
	Flags  FlagAnswers `yaml:"flags"`
}

// IdentityAnswers maps onto wizard.Identity.
type IdentityAnswers struct {
	Name       string `yaml:"name"`
	Email      string `yaml:"email"`
	GitHubUser string `yaml:"github,omitempty"`
	Setup      string `yaml:"setup,omitempty"`
	Work       bool   `yaml:"work,omitempty"`
	WorkEmail  string `yaml:"work_email,omitempty"`
	WorkDir    string `yaml:"work_dir,omitempty"`
}

// ShellAnswers maps onto wizard.ShellChoices. An empty field means "leave as is".
type ShellAnswers struct {
	Shell       string `yaml:"shell"`
	Prompt      string `yaml:"prompt"`
	Terminal    string `yaml:"terminal"`
	Multiplexer string `yaml:"multiplexer"`
	Editor      string `yaml:"editor"`
}

// FlagAnswers are pointers so an omitted flag keeps its default.
type FlagAnswers struct {
	SSHKey     *bool `yaml:"ssh_key,omitempty"`
	GPGSigning *bool `yaml:"gpg_signing,omitempty"`
	Fonts      *bool `yaml:"fonts,omitempty"`
}

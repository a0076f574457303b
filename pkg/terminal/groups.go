package terminal

type commandGroup uint8

const (
	otherCmds commandGroup = iota
	lookupCmds
	indexCmds
)

type commandGroupDescription struct {
	description string
	group       commandGroup
}

var commandGroupDescriptions = []commandGroupDescription{
	{"Looking up addresses", lookupCmds},
	{"Inspecting the index", indexCmds},
	{"Other commands", otherCmds},
}

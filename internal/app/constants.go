package app

// RequiredPlayers is the number of occupied seats the Charleston needs; the
// ritual is only defined for a full table.
const RequiredPlayers = 4

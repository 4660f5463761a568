package serialtty

// WindowSize is the emulator's terminal geometry
type WindowSize struct {
	Rows       uint16
	Cols       uint16
	CellWidth  uint16
	CellHeight uint16
}

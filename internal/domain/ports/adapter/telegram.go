package adapter

// InlineButton describes one inline keyboard button. If URL is set the button
// opens a link, otherwise Data is sent back as callback data.
type InlineButton struct {
	Text string
	Data string
	URL  string
}

// Row is a convenience constructor for a single keyboard row.
func Row(btns ...InlineButton) []InlineButton { return btns }

package banner

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/cokovskak/workloadgenerator/internal/tui/styles"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
                    __   __                __
 _      ______  _____/ /__/ /___  ____ _____/ /___ ____  ____
| | /| / / __ \/ ___/ //_/ / __ \/ __ '/ __  / __ '/ _ \/ __ \
| |/ |/ / /_/ / /  / ,< / / /_/ / /_/ / /_/ / /_/ /  __/ / / /
|__/|__/\____/_/  /_/|_/_/\____/\__,_/\__,_/\__, /\___/_/ /_/
                                           /____/             `

	return "\n" + style.Render(ascii) + "\n"
}

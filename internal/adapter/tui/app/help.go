package app

const helpMarkdown = `# mvi-users

Browse, add and search users. Every screen keeps its state in a store that
only changes through intents, so what you see is always the latest fold.

## Global

| Key | Action |
| --- | --- |
| Ctrl+N / Ctrl+P | Next / previous tab |
| F1 | Toggle this help |
| Ctrl+C | Quit |

On the Users and Activity tabs, **1-4** jump to a tab, **Tab** cycles,
**?** opens help and **q** quits.

## Users

| Key | Action |
| --- | --- |
| j / k | Move selection |
| r | Refresh, or retry after a failed load |
| d | Delete the selected user |

A refresh is ignored while the list is loading or showing an error.

## Add

| Key | Action |
| --- | --- |
| Tab / Shift+Tab | Move between fields |
| Space | Toggle gender |
| Enter | Next field, or save on the button |
| Ctrl+S | Save |

Errors appear once a field was edited, or on every field after a save
attempt.

## Search

Results follow your typing after a short pause. **Esc** clears the query,
**Ctrl+R** retries a failed search.
`

package server

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"

	"github.com/gridwhale/gridsheet/internal/chart"
	"github.com/gridwhale/gridsheet/internal/formula"
	"github.com/gridwhale/gridsheet/internal/sheet"
)

// session runs one client's command loop over its own sheet. The sheet is
// loaded from the hub's store on connect and written back on SAVE; every
// command is answered with a JSON string array whose first element repeats
// the command name, or "ERROR" with a message.
func (c *Client) session() {
	s := sheet.New()
	if c.hub.store != nil {
		loaded, err := c.hub.store.Load()
		if err != nil {
			log.Println("loading workbook:", err)
		} else {
			s = loaded
		}
	}

	for actions := range c.actions {
		res := StringJSON{}
		if err := json.Unmarshal(actions, &res); err != nil {
			log.Println("error decoding JSON command:", err)
			continue
		}

		parsed := res.Arguments
		if len(parsed) == 0 {
			continue
		}

		c.dispatch(s, parsed)
	}
}

func (c *Client) dispatch(s *sheet.Sheet, parsed []string) {
	switch parsed[0] {
	case "SET":
		if len(parsed) < 3 {
			c.reply("ERROR", "SET needs a reference and a value")
			return
		}
		s.SetText(parsed[1], parsed[2])
		ev := formula.NewEvaluator(s.Snapshot())
		id := strings.ToUpper(parsed[1])
		display := ev.Resolve(parsed[1])
		c.reply("SET", id, display)
		// other sessions refresh their view of the edited cell
		c.notify("EDIT", id, display)

	case "GET":
		if len(parsed) < 2 {
			c.reply("ERROR", "GET needs a reference")
			return
		}
		ev := formula.NewEvaluator(s.Snapshot())
		c.reply("GET", strings.ToUpper(parsed[1]), ev.Resolve(parsed[1]))

	case "RANGE":
		if len(parsed) < 2 {
			c.reply("ERROR", "RANGE needs a cell range")
			return
		}
		ev := formula.NewEvaluator(s.Snapshot())
		cells, err := ev.ResolveRange(parsed[1])
		if err != nil {
			c.reply("ERROR", err.Error())
			return
		}
		response := []string{"RANGE", strings.ToUpper(parsed[1])}
		for _, cell := range cells {
			response = append(response, cell.ID, cell.Display)
		}
		c.reply(response...)

	case "CHART":
		if len(parsed) < 4 {
			c.reply("ERROR", "CHART needs an X range, a Y range and a header flag")
			return
		}
		hasHeader, _ := strconv.ParseBool(parsed[3])
		data, err := chart.Build(s.Snapshot(), parsed[1], parsed[2], hasHeader)
		if err != nil {
			c.reply("ERROR", err.Error())
			return
		}
		encoded, err := json.Marshal(data)
		if err != nil {
			c.reply("ERROR", err.Error())
			return
		}
		c.reply("CHART", string(encoded))

	case "CSV":
		if len(parsed) < 2 {
			c.reply("ERROR", "CSV needs file contents")
			return
		}
		rows, cols, err := sheet.ImportCSV(s, parsed[1])
		if err != nil {
			c.reply("ERROR", err.Error())
			return
		}
		c.reply("CSV", strconv.Itoa(rows), strconv.Itoa(cols))

	case "EXPORT-CSV":
		ev := formula.NewEvaluator(s.Snapshot())
		var buf strings.Builder
		if err := sheet.ExportCSV(&buf, s, ev.Resolve); err != nil {
			c.reply("ERROR", err.Error())
			return
		}
		c.reply("EXPORT-CSV", buf.String())

	case "SAVE":
		if c.hub.store == nil {
			c.reply("ERROR", "no workbook store configured")
			return
		}
		if err := c.hub.store.Save(s); err != nil {
			c.reply("ERROR", err.Error())
			return
		}
		c.reply("SAVED")

	default:
		c.reply("ERROR", "unknown command "+parsed[0])
	}
}

func (c *Client) reply(arguments ...string) {
	encoded, err := json.Marshal(arguments)
	if err != nil {
		log.Println("error encoding JSON response:", err)
		return
	}
	c.send <- encoded
}

// notify fans a message out to every connected client through the hub.
func (c *Client) notify(arguments ...string) {
	encoded, err := json.Marshal(arguments)
	if err != nil {
		log.Println("error encoding JSON broadcast:", err)
		return
	}
	c.hub.broadcast <- encoded
}

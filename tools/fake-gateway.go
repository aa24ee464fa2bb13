//go:build ignore

// Fake-gateway simulates an EFC-01 controller for manual client testing:
// answers multicast discovery, accepts logins (password "secret"), serves a
// small fixed device list and pushes a random state-change notification
// every few seconds.
//
// Usage: go run tools/fake-gateway.go [listen-port]
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"os"
	"strconv"
	"time"
)

const etx = 0x03

var receivers = `{
	"devices": [
		{"id": 11, "type": 11, "serial": 725149, "state": [
			{"channel": 1, "alias": "Kitchen light", "power": 0, "icon": 13},
			{"channel": 2, "alias": "Kitchen counter", "power": 1, "icon": 13}
		]},
		{"id": 14, "type": 13, "serial": 725213, "state": [
			{"channel": 1, "alias": "Living room dimmer", "power": 1, "value": 60, "icon": 20}
		]}
	]
}`

var sensors = `{
	"devices": [
		{"id": 21, "type": 242, "serial": 811001, "state": [
			{"channel": 1, "alias": "Outdoor temp", "value": 215, "icon": 40}
		]}
	]
}`

func main() {
	port := 20400
	if len(os.Args) > 1 {
		if p, err := strconv.Atoi(os.Args[1]); err == nil {
			port = p
		}
	}

	go announce()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "listen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("fake gateway listening on :%d (password: secret)\n", port)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		fmt.Printf("client connected: %s\n", conn.RemoteAddr())
		go serve(conn)
	}
}

// announce replays the controller's multicast beacon.
func announce() {
	addr := &net.UDPAddr{IP: net.ParseIP("225.0.0.1"), Port: 20401}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "multicast announce disabled: %v\n", err)
		return
	}
	beacon := append([]byte(`{"command":0,"status":"broadcast","data":null}`), etx)
	for {
		_, _ = conn.Write(beacon)
		time.Sleep(2 * time.Second)
	}
}

func serve(conn net.Conn) {
	defer conn.Close()
	defer fmt.Printf("client disconnected: %s\n", conn.RemoteAddr())

	stop := make(chan struct{})
	defer close(stop)
	go notify(conn, stop)

	buf := make([]byte, 0, 8192)
	chunk := make([]byte, 4096)
	for {
		n, err := conn.Read(chunk)
		if err != nil {
			return
		}
		buf = append(buf, chunk[:n]...)

		for {
			idx := -1
			for i, b := range buf {
				if b == etx {
					idx = i
					break
				}
			}
			if idx < 0 {
				break
			}
			frame := buf[:idx]
			buf = buf[idx+1:]
			handle(conn, frame)
		}
	}
}

func handle(conn net.Conn, frame []byte) {
	var req struct {
		Command int                    `json:"command"`
		Data    map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(frame, &req); err != nil {
		return // keepalive ping
	}
	fmt.Printf("<- command %d\n", req.Command)

	switch req.Command {
	case 1: // login
		if req.Data["password"] == "secret" {
			send(conn, `{"command":1,"status":"success","data":{"config_version":1}}`)
		} else {
			send(conn, `{"command":1,"status":"failure","data":{"code":-2}}`)
		}
	case 37:
		reply(conn, 37, receivers)
	case 38:
		reply(conn, 38, sensors)
	case 39, 203:
		send(conn, fmt.Sprintf(`{"command":%d,"status":"success","data":{"devices":[]}}`, req.Command))
	case 151:
		send(conn, `{"command":151,"status":"success","data":{"installed_version":"1.6.40","web_version":"","update_state":0,"beta_software":""}}`)
	case 154:
		send(conn, `{"command":154,"status":"success","data":{"network":{"name":"Fake EFC-01","mac":"001A2B3C4D5E"},"network_actual":{"ip":"127.0.0.1","mask":"255.0.0.0","gate":"127.0.0.1","dns_prime":"127.0.0.1"}}}`)
	case 102:
		send(conn, `{"command":102,"status":"success","data":{"name":"Fake EFC-01","dhcp":1}}`)
	case 20:
		// echo the control request back as the new state
		data, _ := json.Marshal(req.Data)
		send(conn, fmt.Sprintf(`{"command":20,"status":"success","data":%s}`, data))
	case 44:
		send(conn, `{"command":44,"status":"success","data":{}}`)
	case 150:
		send(conn, `{"command":150,"status":"success","data":{}}`)
	case 500:
		send(conn, `{"command":500,"status":"partial","data_element":{"devices":[]},"progress":50}`)
		send(conn, `{"command":500,"status":"success","data_element":{"scenes":[]}}`)
	default:
		send(conn, fmt.Sprintf(`{"command":%d,"status":"failure","data":{"code":-1}}`, req.Command))
	}
}

// reply sends a device list as one searching frame plus a success frame,
// the way the real controller fragments fetch responses.
func reply(conn net.Conn, command int, devices string) {
	send(conn, fmt.Sprintf(`{"command":%d,"status":"searching","data":%s}`, command, devices))
	send(conn, fmt.Sprintf(`{"command":%d,"status":"success","data":{"devices":[]}}`, command))
}

// notify pushes a random power toggle every few seconds.
func notify(conn net.Conn, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-time.After(5 * time.Second):
		}
		frame := fmt.Sprintf(`{"command":20,"status":"notification","data":{"id":11,"channel":%d,"power":%d}}`,
			1+rand.Intn(2), rand.Intn(2))
		send(conn, frame)
	}
}

func send(conn net.Conn, frame string) {
	_, _ = conn.Write(append([]byte(frame), etx))
}

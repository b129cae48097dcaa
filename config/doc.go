// Package config loads the t5flash YAML configuration file.
//
//	port: /dev/ttyUSB0
//	baud_rate: 1500000
//	timeouts:
//	  erase_ms: 60000
//	retries:
//	  write: 5
//	log:
//	  level: debug
//	flash_parts:
//	  - id: 0x1840C8
//	    name: GD25Q127C
//	    manufacturer: GigaDevice
//	    size_kib: 16384
//	    status_register_size: 2
//	    protect_mask: 0x407C
//	    protect_bits: 0x1C
//	    read_sr: [0x05, 0x35]
//	    write_sr: [0x01]
//
// Load runs Validate, which never mutates, and then Normalize, which
// fills unset values with the programmer defaults.
package config

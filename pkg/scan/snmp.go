// Package scan pkg/scan/snmp.go
package scan

import (
	"fmt"
	"time"

	"github.com/gosnmp/gosnmp"
)

const (
	oidSysDescr = ".1.3.6.1.2.1.1.1.0"
	oidSysName  = ".1.3.6.1.2.1.1.5.0"

	snmpPort = 161
)

// SNMPIdentifier fetches basic system identity from hosts exposing SNMP.
type SNMPIdentifier struct {
	community string
	timeout   time.Duration
}

func NewSNMPIdentifier(community string, timeout time.Duration) *SNMPIdentifier {
	return &SNMPIdentifier{
		community: community,
		timeout:   timeout,
	}
}

// Identify queries sysName and sysDescr from the target. The returned map
// uses metadata keys suitable for a DeviceRecord.
func (s *SNMPIdentifier) Identify(host string) (map[string]string, error) {
	client := &gosnmp.GoSNMP{
		Target:    host,
		Port:      snmpPort,
		Community: s.community,
		Version:   gosnmp.Version2c,
		Timeout:   s.timeout,
		Retries:   1,
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("SNMP connect failed for %s: %w", host, err)
	}

	defer func() {
		_ = client.Conn.Close()
	}()

	result, err := client.Get([]string{oidSysDescr, oidSysName})
	if err != nil {
		return nil, fmt.Errorf("SNMP get failed for %s: %w", host, err)
	}

	info := make(map[string]string)

	for _, variable := range result.Variables {
		if variable.Type != gosnmp.OctetString {
			continue
		}

		value, ok := variable.Value.([]byte)
		if !ok {
			continue
		}

		switch variable.Name {
		case oidSysDescr:
			info["snmp_sys_descr"] = string(value)
		case oidSysName:
			info["snmp_sys_name"] = string(value)
		}
	}

	return info, nil
}

/*
 * Copyright 2024 ScopeDB, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package iotdb provides a session client for the IoTDB time-series database.

# Session

Use NewSession to create a session over a Transport, which carries the RPC
calls to the server. Open the session before use and close it when done:

	session := iotdb.NewSession(&iotdb.Config{
		Host:      "127.0.0.1",
		Port:      6667,
		Username:  "root",
		Password:  "root",
		FetchSize: 1024,
	}, transport, logger)
	if err := session.Open(ctx); err != nil {
		return err
	}
	defer session.Close(ctx)

# Write Data via Tablets

Build a Tablet for a device and insert it. Rows are sorted by timestamp
before they are sent:

	tablet := iotdb.NewTablet("root.sg.d1", []*iotdb.MeasurementSchema{
		iotdb.NewMeasurementSchema("temperature", iotdb.FloatDataType),
		iotdb.NewMeasurementSchema("status", iotdb.BooleanDataType),
	})
	if err := tablet.AddRow([]iotdb.Value{iotdb.Float(36.5), iotdb.Boolean(true)}, ts); err != nil {
		return err
	}
	if err := session.InsertTablet(ctx, tablet, false); err != nil {
		return err
	}

Use a TabletWriter to buffer rows and write them in batches.

# Query Data

Execute a query and iterate over the rows of the returned dataset. The
dataset fetches further pages as needed and releases the query when the loop
ends:

	ds, err := session.ExecuteQueryStatement(ctx, "SELECT * FROM root.sg.d1", 0)
	if err != nil {
		return err
	}
	for record, err := range ds.All(ctx) {
		if err != nil {
			return err
		}
		fmt.Println(record.Timestamp, record.Values)
	}
*/
package iotdb
